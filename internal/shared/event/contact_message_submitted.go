package event

import "time"

const ContactMessageSubmittedDestination string = "contact_message_submitted"
const ContactMessageSubmittedConsumerOwnerNotification string = "contact_message_submitted_owner_notification"

type ContactMessageSubmittedMessage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
