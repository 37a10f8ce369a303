package notifysales

import (
	"bytes"
	"strings"
	"text/template"
	"unicode"

	"property-chat/internal/matcher"
	"property-chat/internal/models"
)

const smsText = "Thank you for reaching out! One of our property experts will call you shortly."

var emailTmpl = template.Must(template.New("sales-email").Funcs(template.FuncMap{
	"budget": func(b *models.Budget) string { return matcher.FormatBudget(*b) },
	"price":  func(v int64) string { return matcher.FormatBudget(models.Budget{Value: v}) },
}).Parse(`A new lead was captured by the website chat.

Lead ID:  {{.LeadID}}
Phone:    {{.Phone}}
{{- with .Context}}
{{- if .Location}}
Location: {{.Location}}{{end}}
{{- if .PropertyType}}
Type:     {{.PropertyType}}{{end}}
{{- if .ListingType}}
For:      {{.ListingType}}{{end}}
{{- if .Bedrooms}}
Bedrooms: {{.Bedrooms}} BHK{{end}}
{{- if .Budget}}
Budget:   {{budget .Budget}}{{end}}
{{- end}}
{{if .Listings}}
Matching listings:
{{- range .Listings}}
  - {{.Title}} ({{.Location}}) {{price .Price}} [{{.ID}}]
{{- end}}
{{else}}
No matching listings were found in inventory.
{{end}}`))

// emailData flattens the optional bedrooms pointer for the template.
type emailData struct {
	LeadID   string
	Phone    string
	Context  contextView
	Listings []Listing
}

type contextView struct {
	Location     string
	PropertyType string
	ListingType  string
	Bedrooms     int
	Budget       *models.Budget
}

func renderEmail(input *Input, phone string) (subject, body string, err error) {
	ctx := contextView{
		Location:     input.Context.Location,
		PropertyType: input.Context.PropertyType,
		ListingType:  input.Context.ListingType,
		Budget:       input.Context.Budget,
	}
	if input.Context.Bedrooms != nil {
		ctx.Bedrooms = *input.Context.Bedrooms
	}

	var buf bytes.Buffer
	err = emailTmpl.Execute(&buf, emailData{
		LeadID:   input.LeadID,
		Phone:    phone,
		Context:  ctx,
		Listings: input.Listings,
	})
	if err != nil {
		return "", "", err
	}

	subject = "New chat lead: " + phone
	if ctx.Location != "" {
		subject += " (" + ctx.Location + ")"
	}
	return subject, buf.String(), nil
}

// NormalizePhone converts a captured number into E.164. Bare ten digit
// numbers are Indian mobiles.
func NormalizePhone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)

	switch {
	case len(digits) == 10:
		return "+91" + digits
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return "+" + digits
	case strings.HasPrefix(strings.TrimSpace(raw), "+"):
		return "+" + digits
	default:
		return digits
	}
}
