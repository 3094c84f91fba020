package ports

import "time"

type Policy struct {
	QueueCapacity  int           `yaml:"queue_capacity"`
	OnQueueFull    string        `yaml:"on_queue_full"` // "block", "drop", "reject"
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxPending     int           `yaml:"max_pending"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
}
