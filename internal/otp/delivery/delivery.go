// Package delivery carries one-time codes to the phone that requested
// them. The console sender is the development default; SMS and Telegram
// senders are selected via OTP_DELIVERY.
package delivery

// Sender delivers a one-time code to a phone number.
type Sender interface {
	Send(phone, code string) error
}
