package logs

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// 定义日志级别常量（数值越大，级别越高）
const (
	LevelTrace   = iota // 0（最低，最详细）
	LevelDebug          // 1
	LevelVerbose        // 2
	LevelInfo           // 3
	LevelWarning        // 4
	LevelError          // 5（最高，最严重）
)

var logLevel atomic.Int32

// 全局 Logger 实例
var std *nodeLogger

// Logger 组件级日志接口，executor / db 通过它输出，方便测试注入
type Logger interface {
	Trace(format string, v ...interface{})
	Debug(format string, v ...interface{})
	Verbose(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type nodeLogger struct {
	tag           string
	traceLogger   *log.Logger
	debugLogger   *log.Logger
	verboseLogger *log.Logger
	infoLogger    *log.Logger
	warnLogger    *log.Logger
	errorLogger   *log.Logger
}

func init() {
	logLevel.Store(LevelInfo)
	std = newNodeLogger("", os.Stdout, os.Stderr)
}

func newNodeLogger(tag string, out, errOut io.Writer) *nodeLogger {
	flags := log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile
	return &nodeLogger{
		tag:           tag,
		traceLogger:   log.New(out, "[TRACE]   ", flags),
		debugLogger:   log.New(out, "[DEBUG]   ", flags),
		verboseLogger: log.New(out, "[VERBOSE] ", flags),
		infoLogger:    log.New(out, "[INFO]    ", flags),
		warnLogger:    log.New(out, "[WARN]    ", flags),
		errorLogger:   log.New(errOut, "[ERROR]   ", flags),
	}
}

// NewNodeLogger 创建带组件标签的 Logger（例如 "vm"、"db"）
func NewNodeLogger(tag string) Logger {
	return newNodeLogger(tag, os.Stdout, os.Stderr)
}

// NewWriterLogger 输出到指定 writer，测试里用来捕获日志
func NewWriterLogger(tag string, w io.Writer) Logger {
	return newNodeLogger(tag, w, w)
}

// SetLevel 设置全局日志级别
func SetLevel(level int) {
	if level < LevelTrace {
		level = LevelTrace
	}
	if level > LevelError {
		level = LevelError
	}
	logLevel.Store(int32(level))
}

// GetLevel 当前全局日志级别
func GetLevel() int {
	return int(logLevel.Load())
}

// ParseLevel 把配置里的字符串级别转换成常量
func ParseLevel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "verbose":
		return LevelVerbose, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func enabled(level int) bool {
	return int(logLevel.Load()) <= level
}

func (l *nodeLogger) output(lg *log.Logger, level int, format string, v ...interface{}) {
	if !enabled(level) {
		return
	}
	if l.tag != "" {
		format = "[" + l.tag + "] " + format
	}
	_ = lg.Output(3, fmt.Sprintf(format, v...))
}

func (l *nodeLogger) Trace(format string, v ...interface{}) {
	l.output(l.traceLogger, LevelTrace, format, v...)
}

func (l *nodeLogger) Debug(format string, v ...interface{}) {
	l.output(l.debugLogger, LevelDebug, format, v...)
}

func (l *nodeLogger) Verbose(format string, v ...interface{}) {
	l.output(l.verboseLogger, LevelVerbose, format, v...)
}

func (l *nodeLogger) Info(format string, v ...interface{}) {
	l.output(l.infoLogger, LevelInfo, format, v...)
}

func (l *nodeLogger) Warn(format string, v ...interface{}) {
	l.output(l.warnLogger, LevelWarning, format, v...)
}

func (l *nodeLogger) Error(format string, v ...interface{}) {
	l.output(l.errorLogger, LevelError, format, v...)
}

// 包级别的日志方法
func Trace(format string, v ...interface{}) {
	std.output(std.traceLogger, LevelTrace, format, v...)
}

func Debug(format string, v ...interface{}) {
	std.output(std.debugLogger, LevelDebug, format, v...)
}

func Verbose(format string, v ...interface{}) {
	std.output(std.verboseLogger, LevelVerbose, format, v...)
}

func Info(format string, v ...interface{}) {
	std.output(std.infoLogger, LevelInfo, format, v...)
}

func Warn(format string, v ...interface{}) {
	std.output(std.warnLogger, LevelWarning, format, v...)
}

func Error(format string, v ...interface{}) {
	std.output(std.errorLogger, LevelError, format, v...)
}
