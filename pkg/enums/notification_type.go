package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeVendorNewOrder       NotificationType = "vendor_new_order"
	NotificationTypeVendorPreparing      NotificationType = "vendor_preparing"
	NotificationTypeVendorShipped        NotificationType = "vendor_shipped"
	NotificationTypeVendorShippedWithDoc NotificationType = "vendor_shipped_with_doc"
	NotificationTypeYayasanPending       NotificationType = "yayasan_pending"
	NotificationTypeYayasanApproved      NotificationType = "yayasan_approved"
	NotificationTypeYayasanRejected      NotificationType = "yayasan_rejected"
	NotificationTypeDeliveryConfirmed    NotificationType = "delivery_confirmed"
	NotificationTypeOrderCompleted       NotificationType = "order_completed"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeVendorNewOrder,
	NotificationTypeVendorPreparing,
	NotificationTypeVendorShipped,
	NotificationTypeVendorShippedWithDoc,
	NotificationTypeYayasanPending,
	NotificationTypeYayasanApproved,
	NotificationTypeYayasanRejected,
	NotificationTypeDeliveryConfirmed,
	NotificationTypeOrderCompleted,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
