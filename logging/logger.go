// Package logging prints log records, timed steps and a progress line
// through a single broker goroutine, so output from the loader, the
// database layer and the importer never interleaves mid-line.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type Level int

const (
	FATAL Level = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

func (l Level) String() string {
	switch l {
	case FATAL:
		return "fatal"
	case ERROR:
		return "error"
	case WARNING:
		return "warn"
	case DEBUG:
		return "debug"
	default:
		return "info"
	}
}

type Record struct {
	Level     Level
	Component string
	Message   string
}

const (
	CLEARLINE = "\x1b[2K"
)

func Debugf(msg string, args ...interface{}) {
	defaultLogBroker.Records <- Record{DEBUG, "", fmt.Sprintf(msg, args...)}
}

func Infof(msg string, args ...interface{}) {
	defaultLogBroker.Records <- Record{INFO, "", fmt.Sprintf(msg, args...)}
}

func Warnf(msg string, args ...interface{}) {
	defaultLogBroker.Records <- Record{WARNING, "", fmt.Sprintf(msg, args...)}
}

func Errorf(msg string, args ...interface{}) {
	defaultLogBroker.Records <- Record{ERROR, "", fmt.Sprintf(msg, args...)}
}

func Progress(msg string) {
	defaultLogBroker.Progress <- msg
}

// SetQuiet suppresses progress lines.
func SetQuiet(quiet bool) {
	defaultLogBroker.setQuiet(quiet)
}

// SetVerbose enables DEBUG records.
func SetVerbose(verbose bool) {
	defaultLogBroker.setVerbose(verbose)
}

// SetOutput redirects all further output to w.
func SetOutput(w io.Writer) {
	defaultLogBroker.setOutput(w)
}

type Logger struct {
	Component string
}

func (l *Logger) Print(args ...interface{}) {
	defaultLogBroker.Records <- Record{INFO, l.Component, fmt.Sprint(args...)}
}

func (l *Logger) Printf(msg string, args ...interface{}) {
	defaultLogBroker.Records <- Record{INFO, l.Component, fmt.Sprintf(msg, args...)}
}

func (l *Logger) Debugf(msg string, args ...interface{}) {
	defaultLogBroker.Records <- Record{DEBUG, l.Component, fmt.Sprintf(msg, args...)}
}

// Fatal logs the message, flushes pending records and exits with status 1.
func (l *Logger) Fatal(args ...interface{}) {
	defaultLogBroker.Records <- Record{FATAL, l.Component, fmt.Sprint(args...)}
	Shutdown()
	os.Exit(1)
}

// Fatalf is like Fatal with a format string.
func (l *Logger) Fatalf(msg string, args ...interface{}) {
	defaultLogBroker.Records <- Record{FATAL, l.Component, fmt.Sprintf(msg, args...)}
	Shutdown()
	os.Exit(1)
}

func (l *Logger) Errorf(msg string, args ...interface{}) {
	defaultLogBroker.Records <- Record{ERROR, l.Component, fmt.Sprintf(msg, args...)}
}

func (l *Logger) Warn(args ...interface{}) {
	defaultLogBroker.Records <- Record{WARNING, l.Component, fmt.Sprint(args...)}
}

func (l *Logger) Warnf(msg string, args ...interface{}) {
	defaultLogBroker.Records <- Record{WARNING, l.Component, fmt.Sprintf(msg, args...)}
}

func (l *Logger) Printfl(level Level, msg string, args ...interface{}) {
	defaultLogBroker.Records <- Record{level, l.Component, fmt.Sprintf(msg, args...)}
}

// StartStep shows msg as progress line and starts a timer for it.
// Pass the returned name to StopStep.
func (l *Logger) StartStep(msg string) string {
	defaultLogBroker.StepStart <- Step{l.Component, msg}
	return msg
}

// StopStep logs how long the step took.
func (l *Logger) StopStep(msg string) {
	defaultLogBroker.StepStop <- Step{l.Component, msg}
}

func NewLogger(component string) *Logger {
	return &Logger{component}
}

type Step struct {
	Component string
	Name      string
}

type LogBroker struct {
	Records   chan Record
	Progress  chan string
	StepStart chan Step
	StepStop  chan Step
	quit      chan bool
	wg        *sync.WaitGroup

	mu           sync.Mutex
	out          io.Writer
	quiet        bool
	verbose      bool
	newline      bool
	lastProgress string
}

func (l *LogBroker) setQuiet(quiet bool) {
	l.mu.Lock()
	l.quiet = quiet
	l.mu.Unlock()
}

func (l *LogBroker) setVerbose(verbose bool) {
	l.mu.Lock()
	l.verbose = verbose
	l.mu.Unlock()
}

func (l *LogBroker) setOutput(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

func (l *LogBroker) loop() {
	defer l.wg.Done()
	steps := make(map[Step]time.Time)
For:
	for {
		select {
		case record := <-l.Records:
			l.printRecord(record)
		case progress := <-l.Progress:
			l.printProgress(progress)
		case step := <-l.StepStart:
			steps[step] = time.Now()
			l.printProgress(step.Name)
		case step := <-l.StepStop:
			startTime := steps[step]
			delete(steps, step)
			duration := time.Since(startTime)
			l.printRecord(Record{INFO, step.Component, step.Name + " took: " + duration.String()})
		case <-l.quit:
			break For
		}
	}
Flush:
	// after quit, print all records from chan
	for {
		select {
		case record := <-l.Records:
			l.printRecord(record)
		default:
			break Flush
		}
	}
	l.mu.Lock()
	if !l.newline && l.lastProgress != "" {
		fmt.Fprintln(l.out)
	}
	l.mu.Unlock()
}

func (l *LogBroker) printPrefix() {
	fmt.Fprint(l.out, "[", time.Now().Format(time.Stamp), "] ")
}

func (l *LogBroker) printComponent(component string) {
	if component != "" {
		fmt.Fprint(l.out, "[", component, "] ")
	}
}

func (l *LogBroker) printRecord(record Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if record.Level == DEBUG && !l.verbose {
		return
	}
	if !l.newline {
		fmt.Fprint(l.out, CLEARLINE)
	}
	l.printPrefix()
	l.printComponent(record.Component)
	if record.Level != INFO {
		fmt.Fprint(l.out, "[", record.Level, "] ")
	}
	fmt.Fprintln(l.out, record.Message)
	l.newline = true
	if l.lastProgress != "" && !l.quiet {
		l.writeProgress(l.lastProgress)
	}
}

func (l *LogBroker) printProgress(progress string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.quiet {
		return
	}
	l.writeProgress(progress)
}

func (l *LogBroker) writeProgress(progress string) {
	l.printPrefix()
	fmt.Fprint(l.out, progress)
	fmt.Fprint(l.out, "\r")
	l.lastProgress = progress
	l.newline = false
}

// Shutdown prints all pending records and stops the broker.
// No logging calls are allowed afterwards.
func Shutdown() {
	defaultLogBroker.quit <- true
	defaultLogBroker.wg.Wait()
}

var defaultLogBroker *LogBroker

func init() {
	defaultLogBroker = &LogBroker{
		Records:   make(chan Record, 8),
		Progress:  make(chan string),
		StepStart: make(chan Step),
		StepStop:  make(chan Step),
		quit:      make(chan bool),
		wg:        &sync.WaitGroup{},
		out:       os.Stdout,
		newline:   true,
	}
	defaultLogBroker.wg.Add(1)
	go defaultLogBroker.loop()
}
