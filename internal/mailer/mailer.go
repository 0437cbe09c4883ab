package mailer

import (
	"fmt"
	"log"

	"github.com/IlyaM70/JustMessanger/internal/model"
)

// Mailer delivers account confirmation links. Delivery is fire-and-forget
// from the caller's point of view.
type Mailer interface {
	SendConfirmation(user *model.User, token, baseURL string) error
}

// LogMailer writes the confirmation link to the process log instead of
// sending mail. Stands in until a real provider is wired up.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) SendConfirmation(user *model.User, token, baseURL string) error {
	link := fmt.Sprintf("%s/api/auth/confirmemail?userId=%s&token=%s", baseURL, user.ID, token)
	log.Printf("Mailer: confirmation link for %s: %s", user.Email, link)
	return nil
}
