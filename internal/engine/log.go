package engine

import (
	"fmt"
	"sort"
	"time"
)

type logLine struct {
	at  time.Duration
	seq int
	msg string
}

// logAt buffers a combat log line. Lines are written on Finalize, after the pull
// shift has been applied, so pre-pull lines carry negative timestamps.
func (p *Processor) logAt(timeStamp time.Duration, format string, args ...interface{}) {
	if p.settings.CombatLog == nil {
		return
	}
	p.logLines = append(p.logLines, logLine{
		at:  timeStamp,
		seq: len(p.logLines),
		msg: fmt.Sprintf(format, args...),
	})
}

func (p *Processor) flushLog() {
	if p.settings.CombatLog == nil {
		return
	}
	sort.SliceStable(p.logLines, func(i, j int) bool {
		if p.logLines[i].at != p.logLines[j].at {
			return p.logLines[i].at < p.logLines[j].at
		}
		return p.logLines[i].seq < p.logLines[j].seq
	})
	for _, l := range p.logLines {
		ts := l.at.Round(time.Millisecond).Seconds()
		prefix := fmt.Sprintf("[%6.2fs] ", ts)
		fmt.Fprintln(p.settings.CombatLog, prefix+l.msg)
	}
	p.logLines = nil
}
