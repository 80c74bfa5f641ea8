package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/storefront-auth/pkg/mailer"
	mailtpl "github.com/oksasatya/storefront-auth/pkg/mailer/templates"
)

func SubjectForUniversal(data map[string]any) string {
	typeStr := fmt.Sprintf("%v", data["Type"])
	switch strings.ToLower(typeStr) {
	case mailtpl.Welcome:
		return "Welcome to your new account"
	case mailtpl.LoginNotification:
		return "New login to your account"
	case mailtpl.PasswordReset:
		return "Your password was reset"
	case mailtpl.ProfileUpdated:
		return "Your profile was updated successfully"
	default:
		return "Account notification"
	}
}

// EnsureRecipientAndEmail fills the address fields and Type the templates
// read, so a sparse job still renders.
func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
	if _, ok := job.Data["Type"]; !ok {
		job.Data["Type"] = ""
	}
}

// MapTypeToUniversal rewrites jobs addressed to a notification type by name
// onto the universal layout.
func MapTypeToUniversal(job *mailer.EmailJob) {
	switch strings.ToLower(job.Template) {
	case mailtpl.Welcome, mailtpl.LoginNotification, mailtpl.PasswordReset, mailtpl.ProfileUpdated:
		if job.Data == nil {
			job.Data = map[string]any{}
		}
		if v, ok := job.Data["Type"]; !ok || fmt.Sprintf("%v", v) == "" {
			job.Data["Type"] = strings.ToLower(job.Template)
		}
		job.Template = mailtpl.Universal
	}
}
