package controller

import (
	"fmt"

	"mailpane/models"
	"mailpane/utils"
)

// ReplySubject prefixes "Re: " unless the subject already contains "Re:"
func ReplySubject(subject string) string {
	if utils.HasReplyMarker(subject) {
		return subject
	}
	return "Re: " + subject
}

// QuoteBody returns the pre-filled body of a reply
func QuoteBody(email models.Email) string {
	return fmt.Sprintf("On %s %s wrote: %s", email.Timestamp, email.Sender, email.Body)
}
