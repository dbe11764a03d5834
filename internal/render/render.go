// Package render fills document templates with tenant data and produces the
// byte artifact that is dispatched for signing.
package render

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neela-property/neela-server/internal/models"
)

// ErrRender indicates a template could not be filled
var ErrRender = errors.New("render failed")

// Renderer fills a template against tenant data
type Renderer interface {
	Render(templateText string, tenant *models.Tenant) (documentBytes []byte, filledText string, err error)
}

// TemplateRenderer is the placeholder-substitution renderer. Placeholders use
// the {{name}} form, e.g. {{tenant_name}} or {{rent_amount}}.
type TemplateRenderer struct {
	PropertyManagerName string

	// now is overridable in tests
	now func() time.Time
}

// NewTemplateRenderer creates a template renderer
func NewTemplateRenderer(propertyManagerName string) *TemplateRenderer {
	return &TemplateRenderer{
		PropertyManagerName: propertyManagerName,
		now:                 time.Now,
	}
}

// Render fills the template and returns the document bytes plus filled text
func (r *TemplateRenderer) Render(templateText string, tenant *models.Tenant) ([]byte, string, error) {
	if tenant == nil {
		return nil, "", fmt.Errorf("%w: no tenant", ErrRender)
	}
	if strings.TrimSpace(tenant.Name) == "" || strings.TrimSpace(tenant.Email) == "" {
		return nil, "", fmt.Errorf("%w: tenant name and email are required", ErrRender)
	}
	if templateText == "" {
		return nil, "", fmt.Errorf("%w: empty template", ErrRender)
	}

	now := r.now()

	// Lease term defaults to one year from today when unset
	leaseStart := now
	if tenant.LeaseStart != nil {
		leaseStart = *tenant.LeaseStart
	}
	leaseEnd := leaseStart.AddDate(0, 0, 365)
	if tenant.LeaseEnd != nil {
		leaseEnd = *tenant.LeaseEnd
	}

	employer, jobTitle, monthlyIncome := employmentFields(tenant.ApplicationData)

	replacements := map[string]string{
		"{{tenant_name}}":       tenant.Name,
		"{{tenant_first_name}}": tenant.FirstName(),
		"{{tenant_last_name}}":  tenant.LastName(),
		"{{tenant_email}}":      tenant.Email,
		"{{tenant_phone}}":      tenant.Phone,
		"{{property_unit}}":     tenant.PropertyUnit,
		"{{rent_amount}}":       FormatMoney(tenant.RentAmount),
		"{{deposit_amount}}":    FormatMoney(tenant.Deposit),
		"{{lease_start_date}}":  leaseStart.Format("January 2, 2006"),
		"{{lease_end_date}}":    leaseEnd.Format("January 2, 2006"),
		"{{employer}}":          employer,
		"{{job_title}}":         jobTitle,
		"{{monthly_income}}":    monthlyIncome,
		"{{current_date}}":      now.Format("January 2, 2006"),
		"{{property_manager}}":  r.PropertyManagerName,
	}

	filled := templateText
	for placeholder, value := range replacements {
		filled = strings.ReplaceAll(filled, placeholder, value)
	}

	return []byte(filled), filled, nil
}

// employmentFields extracts employment info from the tenant's application data
func employmentFields(data models.Variables) (employer, jobTitle, monthlyIncome string) {
	employer, jobTitle, monthlyIncome = "N/A", "N/A", "N/A"

	if data == nil {
		return
	}
	employment, ok := data["employment"].(map[string]interface{})
	if !ok {
		return
	}

	if v, ok := employment["employer"].(string); ok && v != "" {
		employer = v
	}
	if v, ok := employment["jobTitle"].(string); ok && v != "" {
		jobTitle = v
	}
	switch v := employment["monthlyIncome"].(type) {
	case float64:
		monthlyIncome = FormatMoney(decimal.NewFromFloat(v))
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			monthlyIncome = FormatMoney(d)
		}
	}

	return
}

// FormatMoney renders a decimal amount as $1,500.00
func FormatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.SplitN(s, ".", 2)
	whole := parts[0]

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	out := "$" + b.String() + "." + parts[1]
	if neg {
		out = "-" + out
	}
	return out
}

// DefaultLeaseTemplate is the built-in lease template used when no active
// template exists in the database
const DefaultLeaseTemplate = `RESIDENTIAL LEASE AGREEMENT

This Lease Agreement ("Lease") is entered into on {{current_date}} between {{property_manager}} ("Landlord") and {{tenant_name}} ("Tenant").

1. PROPERTY
Landlord leases to Tenant the property located at {{property_unit}} (the "Property").

2. TERM
The lease term begins on {{lease_start_date}} and ends on {{lease_end_date}}.

3. RENT
Tenant agrees to pay Landlord monthly rent of {{rent_amount}} per month, due on the first day of each month.

4. SECURITY DEPOSIT
Tenant has paid a security deposit of {{deposit_amount}} which will be held by Landlord as security for the performance of Tenant's obligations under this Lease.

5. TENANT INFORMATION
Tenant Name: {{tenant_name}}
Email: {{tenant_email}}
Phone: {{tenant_phone}}
Employer: {{employer}}
Job Title: {{job_title}}
Monthly Income: {{monthly_income}}

6. OBLIGATIONS
Tenant agrees to:
- Pay rent on time
- Keep the Property clean and in good condition
- Not disturb other tenants
- Comply with all applicable laws and regulations

7. DEFAULT
If Tenant fails to pay rent or breaches any term of this Lease, Landlord may terminate this Lease.

8. SIGNATURES
By signing below, both parties agree to the terms of this Lease.

_________________________          _________________________
Landlord                            Tenant
{{current_date}}                    {{current_date}}`
