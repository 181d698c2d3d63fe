// FILE: internal/service/notification_renderer.go
package service

import (
	"bytes"
	"fmt"
	"html/template"

	"billing-sync-be/internal/entity"
)

// INotificationRenderer turns a queued item into a subject and an HTML body.
type INotificationRenderer interface {
	Render(kind entity.NotificationKind, payload map[string]interface{}) (subject string, body string, err error)
}

type notificationTemplate struct {
	subject  func(data map[string]interface{}) string
	body     *template.Template
	defaults map[string]interface{}
}

type notificationRenderer struct {
	siteName  string
	siteURL   string
	templates map[entity.NotificationKind]notificationTemplate
}

const layoutHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.title}}</title></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #4f46e5; padding: 24px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1 style="color: white; margin: 0; font-size: 22px;">{{.title}}</h1>
  </div>
  <div style="background: #ffffff; padding: 24px; border-radius: 0 0 10px 10px;">
    <p>Hello {{.name}},</p>
    {{template "content" .}}
    <div style="text-align: center; margin-top: 24px;">
      <a href="{{.siteURL}}/dashboard" style="background: #4f46e5; color: white; padding: 12px 28px; text-decoration: none; border-radius: 5px;">Go to Dashboard</a>
    </div>
    <hr style="border: none; border-top: 1px solid #e0e0e0; margin: 24px 0;">
    <p style="font-size: 12px; color: #666; text-align: center;">This is an automated message from {{.siteName}}.</p>
  </div>
</body>
</html>`

var contentHTML = map[entity.NotificationKind]string{
	entity.NotificationKindSignUp: `
    <p>Thank you for joining {{.siteName}}. Your account has been created.</p>
    <p><strong>Account Email:</strong> {{.email}}</p>`,
	entity.NotificationKindPayment: `
    <p>Your payment was received and your <strong>{{.planName}}</strong> plan is now active.</p>
    <p>You now have access to everything included in your plan.</p>`,
	entity.NotificationKindRoleChange: `
    <p>Your account role has been updated.</p>
    <p><strong>Previous role:</strong> {{.oldRole}}<br><strong>New role:</strong> {{.newRole}}</p>`,
	entity.NotificationKindSubscriptionCancelled: `
    <p>Your <strong>{{.planName}}</strong> subscription was cancelled on {{.cancellationDate}}.</p>
    <p>Your account has returned to the Free plan. You can subscribe again at any time.</p>`,
	entity.NotificationKindRenewalReminder: `
    <p>Your <strong>{{.planName}}</strong> subscription renews on {{.renewalDate}}.</p>
    <p>No action is needed to keep your access. To change or cancel your plan, visit <a href="{{.manageURL}}">your dashboard</a>.</p>`,
}

func NewNotificationRenderer(siteName, siteURL string) (INotificationRenderer, error) {
	subjects := map[entity.NotificationKind]func(map[string]interface{}) string{
		entity.NotificationKindSignUp: func(map[string]interface{}) string {
			return fmt.Sprintf("Welcome to %s!", siteName)
		},
		entity.NotificationKindPayment: func(d map[string]interface{}) string {
			return fmt.Sprintf("Payment Confirmation - Welcome to %v!", d["planName"])
		},
		entity.NotificationKindRoleChange: func(map[string]interface{}) string {
			return "Your Account Role Has Been Updated"
		},
		entity.NotificationKindSubscriptionCancelled: func(map[string]interface{}) string {
			return "Subscription Cancelled"
		},
		entity.NotificationKindRenewalReminder: func(map[string]interface{}) string {
			return "Your Subscription Renews in 3 Days"
		},
	}
	defaults := map[entity.NotificationKind]map[string]interface{}{
		entity.NotificationKindSignUp:                {"email": ""},
		entity.NotificationKindPayment:               {"planName": "Plan"},
		entity.NotificationKindRoleChange:            {"oldRole": string(entity.RoleFree), "newRole": string(entity.RoleFree)},
		entity.NotificationKindSubscriptionCancelled: {"planName": "Subscription", "cancellationDate": ""},
		entity.NotificationKindRenewalReminder:       {"planName": "Subscription", "renewalDate": "", "manageURL": siteURL + "/dashboard"},
	}

	templates := make(map[entity.NotificationKind]notificationTemplate, len(contentHTML))
	for kind, content := range contentHTML {
		tmpl, err := template.New(string(kind)).Parse(layoutHTML)
		if err != nil {
			return nil, fmt.Errorf("parse layout for %s: %w", kind, err)
		}
		if _, err := tmpl.New("content").Parse(content); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", kind, err)
		}
		templates[kind] = notificationTemplate{subject: subjects[kind], body: tmpl, defaults: defaults[kind]}
	}

	return &notificationRenderer{siteName: siteName, siteURL: siteURL, templates: templates}, nil
}

func (r *notificationRenderer) Render(kind entity.NotificationKind, payload map[string]interface{}) (string, string, error) {
	t, ok := r.templates[kind]
	if !ok {
		return "", "", fmt.Errorf("no template for notification kind %q", kind)
	}

	data := map[string]interface{}{
		"name":     "there",
		"siteName": r.siteName,
		"siteURL":  r.siteURL,
	}
	for k, v := range t.defaults {
		data[k] = v
	}
	for k, v := range payload {
		if v == nil || v == "" {
			continue
		}
		data[k] = v
	}

	subject := t.subject(data)
	data["title"] = subject

	var buf bytes.Buffer
	if err := t.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", kind, err)
	}
	return subject, buf.String(), nil
}
