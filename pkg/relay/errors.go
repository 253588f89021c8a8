package relay

import "errors"

var (
	ErrInvalidMessage       = errors.New("message needs content or an image")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrSenderBlocked        = errors.New("customer is blocked")
	ErrNotAssigned          = errors.New("conversation is assigned to another employee")
	ErrForbidden            = errors.New("forbidden")
	ErrConversationClosed   = errors.New("conversation is closed")
	ErrStoreUnavailable     = errors.New("message store unavailable")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidMessage, "InvalidMessage"},
	{ErrConversationNotFound, "ConversationNotFound"},
	{ErrSenderBlocked, "SenderBlocked"},
	{ErrNotAssigned, "NotAssigned"},
	{ErrForbidden, "Forbidden"},
	{ErrConversationClosed, "ConversationClosed"},
	{ErrStoreUnavailable, "StoreUnavailable"},
}

// Code returns the stable code both transports report for err, or
// "Internal" when err is not one of the relay's errors.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "Internal"
}
