package config

import "time"

type Notifications struct {
	Events          Events
	ShutdownTimeout time.Duration
}

func LoadNotifications() (Notifications, error) {
	events, err := loadEvents()
	if err != nil {
		return Notifications{}, err
	}

	return Notifications{
		Events:          events,
		ShutdownTimeout: defaultShutdownTimeout,
	}, nil
}
