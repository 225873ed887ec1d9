package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
)

type emailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[string]emailTemplate{
	domain.EventOrderCreated: {
		subject: "We received your order {{.OrderNumber}}",
		body: template.Must(template.New("created").Parse(`Hi {{.CustomerName}},

Thanks for shopping with Ri-carts. Your order {{.OrderNumber}} has been placed.

Items: {{.ItemCount}}
Total: {{.TotalAmount.StringFixed 2}} {{.Currency}}

We'll let you know once your payment is confirmed.
`)),
	},
	domain.EventOrderPaid: {
		subject: "Payment received for order {{.OrderNumber}}",
		body: template.Must(template.New("paid").Parse(`Hi {{.CustomerName}},

We've received your payment{{if .PaidAmount}} of {{.PaidAmount.StringFixed 2}} {{.Currency}}{{end}} for order {{.OrderNumber}}.
{{if .PaymentID}}Payment reference: {{.PaymentID}}
{{end}}
Your order is now being processed.
`)),
	},
	domain.EventOrderShipped: {
		subject: "Your order {{.OrderNumber}} has shipped",
		body: template.Must(template.New("shipped").Parse(`Hi {{.CustomerName}},

Good news! Order {{.OrderNumber}} is on its way.

Tracking number: {{.TrackingNumber}}
`)),
	},
	domain.EventOrderRefunded: {
		subject: "Refund issued for order {{.OrderNumber}}",
		body: template.Must(template.New("refunded").Parse(`Hi {{.CustomerName}},

Order {{.OrderNumber}} has been refunded{{if .RefundAmount}} ({{.RefundAmount.StringFixed 2}} {{.Currency}}){{end}}.
{{if .RefundID}}Refund reference: {{.RefundID}}
{{end}}
It can take 5-7 business days to appear on your statement.
`)),
	},
}

// Render builds the customer email for an event. ok is false for event types
// that have no email.
func Render(eventType string, evt domain.OrderEvent) (Email, bool, error) {
	tpl, ok := templates[eventType]
	if !ok {
		return Email{}, false, nil
	}

	subject, err := template.New("subject").Parse(tpl.subject)
	if err != nil {
		return Email{}, false, err
	}
	var subj, body bytes.Buffer
	if err := subject.Execute(&subj, evt); err != nil {
		return Email{}, false, fmt.Errorf("render %s subject: %w", eventType, err)
	}
	if err := tpl.body.Execute(&body, evt); err != nil {
		return Email{}, false, fmt.Errorf("render %s body: %w", eventType, err)
	}

	return Email{To: evt.CustomerEmail, Subject: subj.String(), Body: body.String()}, true, nil
}
