package service

import "time"

const timeFormat = "2006-01-02T15:04:05Z"

func nowUTC() time.Time { return time.Now().UTC() }
