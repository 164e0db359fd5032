// Package whatsapp sends text messages through the CallMeBot WhatsApp relay.
//
// The relay is a single GET endpoint that takes the phone number, the text
// and a per-number API key as query parameters. Transient failures (network
// errors, 429 and 5xx answers) are retried with a capped fibonacci backoff
// inside the caller's context deadline.
package whatsapp
