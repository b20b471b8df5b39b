package usecase

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const otpEmailSubject = "Your Verification Code"

var otpEmailHTML = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background-color: #0a0a0f; color: #ffffff; padding: 40px 20px; margin: 0;">
  <div style="max-width: 480px; margin: 0 auto; background: linear-gradient(135deg, #1a1a2e 0%, #16213e 100%); border-radius: 16px; padding: 40px; border: 1px solid #2a2a4a;">
    <h1 style="color: #ffffff; font-size: 24px; margin: 0 0 8px 0; text-align: center;">Verify Your Email</h1>
    <p style="color: #a0a0b0; font-size: 14px; margin: 0 0 32px 0; text-align: center;">Use the code below to verify your email address</p>
    <div style="background: linear-gradient(135deg, #6366f1 0%, #8b5cf6 100%); border-radius: 12px; padding: 24px; text-align: center; margin-bottom: 24px;">
      <p style="font-size: 36px; font-weight: bold; letter-spacing: 8px; margin: 0; color: #ffffff;">{{.Code}}</p>
    </div>
    <p style="color: #a0a0b0; font-size: 13px; text-align: center; margin: 0;">
      This code expires in <strong style="color: #6366f1;">{{.Expiry}}</strong>
    </p>
    <hr style="border: none; border-top: 1px solid #2a2a4a; margin: 32px 0;">
    <p style="color: #606070; font-size: 12px; text-align: center; margin: 0;">
      If you didn't request this code, you can safely ignore this email.
    </p>
  </div>
</body>
</html>
`))

type otpEmailData struct {
	Code   string
	Expiry string
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}

	sec := int(d / time.Second)
	if sec == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", sec)
}

func renderOTPEmail(code string, ttl time.Duration) (htmlBody, textBody string, err error) {
	data := otpEmailData{Code: code, Expiry: humanDuration(ttl)}

	var buf bytes.Buffer
	if err := otpEmailHTML.Execute(&buf, data); err != nil {
		return "", "", err
	}

	textBody = fmt.Sprintf("Your verification code is %s\n\nThis code expires in %s.\nIf you didn't request this code, you can safely ignore this email.\n", code, data.Expiry)

	return buf.String(), textBody, nil
}
