package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// EmailData defines standard fields for account notification templates.
type EmailData struct {
	// Basic info
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	// Company info
	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	AppName        string `json:"AppName"`

	// URLs
	LogoURL    string `json:"LogoURL"`
	SupportURL string `json:"SupportURL"`
	PrivacyURL string `json:"PrivacyURL"`
	LoginURL   string `json:"LoginURL"`

	// Request context
	IP        string    `json:"IP"`
	Time      string    `json:"Time"`
	TimeAt    time.Time `json:"TimeAt"`
	UserAgent string    `json:"UserAgent"`
	Location  string    `json:"Location"`

	// Changes lists the profile fields that were modified (values are never included).
	Changes []string `json:"Changes"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() {
			return fallback
		}
		zero := reflect.Zero(rv.Type()).Interface()
		if reflect.DeepEqual(value, zero) {
			return fallback
		}
		return value
	}
}

func baseFuncs() map[string]any {
	return map[string]any{
		"now":        func() time.Time { return time.Now().UTC() },
		"formatTime": func(t time.Time, layout string) string { return t.Format(layout) },
		"upper":      strings.ToUpper,
		"default":    defaultFn,
	}
}

var (
	htmlFuncMap = htmpl.FuncMap(baseFuncs())
	textFuncMap = texttpl.FuncMap(baseFuncs())
)

// Notification types carried in EmailData.Type.
const (
	Welcome           = "welcome"
	LoginNotification = "login_notification"
	PasswordReset     = "password_reset"
	ProfileUpdated    = "profile_updated"
)

// Universal is the single layout used for every notification type.
const Universal = "universal"

// renderFile loads and renders a single template file from the embedded FS.
// isHTML indicates whether to use html/template (true) or text/template (false).
func renderFile(filename string, isHTML bool, data any) (string, error) {
	var (
		buf bytes.Buffer
		err error
	)

	if isHTML {
		tpl, e := htmpl.New(filename).Funcs(htmlFuncMap).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse html %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	} else {
		tpl, e := texttpl.New(filename).Funcs(textFuncMap).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse text %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	}
	if err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}

// Render renders the text and html bodies for the given base name.
// Expects: <name>.text.tmpl, <name>.html.tmpl
func Render(name string, data any) (text string, html string, err error) {
	text, err = renderFile(name+".text.tmpl", false, data)
	if err != nil {
		return "", "", err
	}
	html, err = renderFile(name+".html.tmpl", true, data)
	if err != nil {
		return "", "", err
	}
	return text, html, nil
}

// RenderHTML renders just an HTML template: <name>.html.tmpl
func RenderHTML(name string, data any) (string, error) {
	return renderFile(name+".html.tmpl", true, data)
}
