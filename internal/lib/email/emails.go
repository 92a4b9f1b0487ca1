package email

import "context"

// SendWelcomeEmail greets a newly created user.
func (c *Client) SendWelcomeEmail(ctx context.Context, to, name string) error {
	data := map[string]string{
		"UserName":  name,
		"UserEmail": to,
	}

	return c.SendEmail(ctx, to, "Welcome to Users API!", TemplateWelcome, data)
}
