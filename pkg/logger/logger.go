package logger

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

var (
	mu  sync.Mutex
	out = log.New(os.Stdout, "", 0)
)

func Init() {
	mu.Lock()
	defer mu.Unlock()
	out = log.New(os.Stdout, "", 0)
}

type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	UserID    string                 `json:"userID,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func write(level, event, userID, errMsg string, fields map[string]interface{}) {
	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Event:     event,
		UserID:    userID,
		Error:     errMsg,
		Fields:    fields,
	}

	encoded, err := json.Marshal(e)
	if err != nil {
		out.Printf(`{"level":"error","event":"logger_marshal_failed","error":%q}`, err.Error())
		return
	}

	mu.Lock()
	defer mu.Unlock()
	out.Print(string(encoded))
}

func Info(event string, fields map[string]interface{}) {
	write("info", event, "", "", fields)
}

func Warn(event string, fields map[string]interface{}) {
	write("warn", event, "", "", fields)
}

func Error(event string, err error, fields map[string]interface{}) {
	message := ""
	if err != nil {
		message = err.Error()
	}
	write("error", event, "", message, fields)
}

func InfoWithUser(userID, event string, fields map[string]interface{}) {
	write("info", event, userID, "", fields)
}

func WarnWithUser(userID, event string, fields map[string]interface{}) {
	write("warn", event, userID, "", fields)
}
