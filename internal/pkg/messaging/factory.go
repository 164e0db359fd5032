package messaging

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DriverMemory = "memory"
	DriverNATS   = "nats"
	DriverKafka  = "kafka"
	DriverNSQ    = "nsq"
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions carries the config of every backend; only the selected one is read.
type FactoryOptions struct {
	NATS  NATSConfig
	Kafka KafkaConfig
	NSQ   NSQConfig
}

// NewFromDriver builds the backend named by driver. An empty driver selects
// the in-memory backend.
func NewFromDriver(driver string, opts FactoryOptions) (Messaging, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverNSQ:
		return NewNSQ(opts.NSQ)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
