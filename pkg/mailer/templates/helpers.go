package templates

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Brand is the sender identity stamped on every notification.
type Brand struct {
	AppName        string
	CompanyName    string
	CompanyAddress string
	LogoURL        string
	SupportURL     string
	PrivacyURL     string
	LoginURL       string
}

// Option pattern
type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04 MST")
	}
}

// WithChanges records which fields changed, sorted for stable output.
func WithChanges(fields []string) Option {
	return func(d *EmailData) {
		out := append([]string(nil), fields...)
		sort.Strings(out)
		d.Changes = out
	}
}

func setLocation(d *EmailData, loc string) {
	if s := strings.TrimSpace(loc); s != "" {
		d.Location = s
	}
}

func WithLocation(loc string) Option {
	return func(d *EmailData) { setLocation(d, loc) }
}

func WithGeo(g Geo) Option {
	return func(d *EmailData) { setLocation(d, FormatGeo(g)) }
}

func WithGeoFromIP(ctx context.Context, r GeoResolver, ip string) Option {
	return func(d *EmailData) {
		if r == nil || strings.TrimSpace(ip) == "" {
			return
		}
		if g, err := r.Lookup(ctx, ip); err == nil {
			setLocation(d, FormatGeo(g))
		}
	}
}

// NewBaseEmailData fills brand fields, then applies options.
func NewBaseEmailData(brand Brand, typ string, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName:    brand.CompanyName,
		CompanyAddress: brand.CompanyAddress,
		AppName:        brand.AppName,

		LogoURL:    brand.LogoURL,
		SupportURL: brand.SupportURL,
		PrivacyURL: brand.PrivacyURL,
		LoginURL:   brand.LoginURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(brand Brand, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(brand, Welcome, name, email, opts...))
}

func NewLoginNotificationData(brand Brand, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(brand, LoginNotification, name, email, opts...))
}

func NewPasswordResetData(brand Brand, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(brand, PasswordReset, name, email, opts...))
}

func NewProfileUpdatedData(brand Brand, name, email string, changes []string, opts ...Option) map[string]any {
	opts = append([]Option{WithChanges(changes)}, opts...)
	return ToMap(NewBaseEmailData(brand, ProfileUpdated, name, email, opts...))
}
