package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/sidaputra/dapurlink-backend/api/responses"
	"github.com/sidaputra/dapurlink-backend/api/validators"
	"github.com/sidaputra/dapurlink-backend/internal/delivery"
	"github.com/sidaputra/dapurlink-backend/internal/orders"
	"github.com/sidaputra/dapurlink-backend/internal/users"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
	pkgerrors "github.com/sidaputra/dapurlink-backend/pkg/errors"
	"github.com/sidaputra/dapurlink-backend/pkg/logger"
)

func YayasanPendingOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		listed, err := svc.ListPending(r.Context(), actor.YayasanID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listed)
	}
}

func YayasanOrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetYayasanDetail(r.Context(), actor.YayasanID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func YayasanOrderApprove(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return decisionHandler(logg, func(r *http.Request, input orders.DecisionInput) (*orders.OrderDTO, error) {
		return svc.Approve(r.Context(), input)
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func YayasanOrderReject(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req rejectRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Reject(r.Context(), orders.RejectInput{
			DecisionInput: orders.DecisionInput{
				YayasanID:   actor.YayasanID,
				ActorUserID: actor.UserID,
				OrderID:     orderID,
			},
			Reason: req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func YayasanOrderComplete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return decisionHandler(logg, func(r *http.Request, input orders.DecisionInput) (*orders.OrderDTO, error) {
		return svc.Complete(r.Context(), input)
	})
}

func decisionHandler(logg *logger.Logger, decide func(*http.Request, orders.DecisionInput) (*orders.OrderDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := decide(r, orders.DecisionInput{
			YayasanID:   actor.YayasanID,
			ActorUserID: actor.UserID,
			OrderID:     orderID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func YayasanDeliveryConfirmations(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		listed, err := svc.ListConfirmations(r.Context(), actor.YayasanID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listed)
	}
}

type createMemberRequest struct {
	Email      string     `json:"email" validate:"required,email"`
	Password   string     `json:"password" validate:"required,min=8"`
	Name       string     `json:"name" validate:"required"`
	Phone      *string    `json:"phone,omitempty"`
	Role       string     `json:"role" validate:"required,oneof=dapur vendor"`
	VendorID   *uuid.UUID `json:"vendor_id,omitempty"`
	VendorName *string    `json:"vendor_name,omitempty"`
}

func YayasanMemberCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var req createMemberRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseActorRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		member, err := svc.CreateMember(r.Context(), actor.YayasanID, users.CreateMemberInput{
			Email:      req.Email,
			Password:   req.Password,
			Name:       req.Name,
			Phone:      req.Phone,
			Role:       role,
			VendorID:   req.VendorID,
			VendorName: req.VendorName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, member)
	}
}

func YayasanMembersList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var role *enums.ActorRole
		if raw := r.URL.Query().Get("role"); raw != "" {
			parsed, err := enums.ParseActorRole(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
				return
			}
			role = &parsed
		}

		listed, err := svc.ListMembers(r.Context(), actor.YayasanID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listed)
	}
}

func YayasanMemberDeactivate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		userID, err := parseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeactivateMember(r.Context(), actor.YayasanID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deactivated": true})
	}
}
