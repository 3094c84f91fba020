package fieldbus

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// Open returns the dialer for cfg.Transport.
func Open(cfg Config, logger *logrus.Logger) (ports.FieldDialer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("field config: %w", err)
	}
	if cfg.Transport == "sim" {
		return NewSimulator(cfg.Registers), nil
	}
	return NewDialer(cfg, logger), nil
}
