package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shandysiswandi/safex/internal/mfa/entity"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/whatsapp"
	"go.opentelemetry.io/otel/codes"
)

// WhatsApp delivers codes through a whatsapp.Sender.
type WhatsApp struct {
	sender whatsapp.Sender
	ins    instrument.Instrumentation
}

func NewWhatsApp(sender whatsapp.Sender, ins instrument.Instrumentation) *WhatsApp {
	return &WhatsApp{sender: sender, ins: ins}
}

func (w *WhatsApp) SendCode(ctx context.Context, d entity.Delivery) error {
	ctx, span := w.ins.Tracer("mfa.outbound.delivery").Start(ctx, "SendCode")
	defer span.End()

	err := w.sender.Send(ctx, whatsapp.Message{Phone: d.Destination, Text: renderMessage(d)})
	if err == nil {
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if errors.Is(err, whatsapp.ErrAPIKeyRequired) {
		return fmt.Errorf("%w: %w", entity.ErrConfiguration, err)
	}
	return err
}

func renderMessage(d entity.Delivery) string {
	account := d.Subject.Email
	if account == "" {
		account = d.Subject.ID
	}

	var b strings.Builder
	b.WriteString("*SafeX verification code*\n\n")
	fmt.Fprintf(&b, "Code: *%s*\n", d.Code)
	fmt.Fprintf(&b, "Account: %s\n", account)
	if d.Subject.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", d.Subject.Name)
	}
	fmt.Fprintf(&b, "Valid for %d minutes.\n\n", entity.CeilMinutes(d.ValidFor))
	b.WriteString("Never share this code with anyone.")
	return b.String()
}
