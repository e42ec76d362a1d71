package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func outcomeOK(i int, url string) Outcome {
	return Outcome{
		Target:   Target{Index: i, URL: url, Platform: PlatformYouTube},
		Payload:  &Payload{URL: url, Platform: PlatformYouTube},
		Attempts: 1,
	}
}

func outcomeFailed(i int, url string, class FailureClass) Outcome {
	return Outcome{
		Target:  Target{Index: i, URL: url, Platform: PlatformYouTube},
		Failure: class,
		Reason:  "boom",
	}
}

func TestNewReport_Counts(t *testing.T) {
	now := time.Now()
	r := NewReport(PlatformYouTube, []Outcome{
		outcomeOK(0, "https://youtube.com/watch?v=A"),
		outcomeFailed(1, "https://youtube.com/watch?v=B", FailureTransient),
		outcomeOK(2, "https://youtube.com/watch?v=C"),
	}, now, now.Add(time.Second), false)

	assert.Equal(t, 2, r.Succeeded)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 3, r.Total)
	assert.False(t, r.Cancelled)
}

func TestReport_FailuresPreserveOrder(t *testing.T) {
	now := time.Now()
	r := NewReport(PlatformTikTok, []Outcome{
		outcomeFailed(0, "https://a.example/0", FailurePermanent),
		outcomeOK(1, "https://a.example/1"),
		outcomeFailed(2, "https://a.example/2", FailureTransient),
	}, now, now, false)

	failures := r.Failures()
	assert.Len(t, failures, 2)
	assert.Equal(t, 0, failures[0].Target.Index)
	assert.Equal(t, 2, failures[1].Target.Index)
}

func TestStatusOf(t *testing.T) {
	now := time.Now()
	ok := NewReport(PlatformTwitch, []Outcome{outcomeOK(0, "https://twitch.tv/x")}, now, now, false)
	assert.Equal(t, RunStatusOK, StatusOf(ok))

	partial := NewReport(PlatformTwitch, []Outcome{outcomeFailed(0, "https://twitch.tv/x", FailurePermanent)}, now, now, false)
	assert.Equal(t, RunStatusPartial, StatusOf(partial))

	cancelled := NewReport(PlatformTwitch, []Outcome{outcomeOK(0, "https://twitch.tv/x")}, now, now, true)
	assert.Equal(t, RunStatusPartial, StatusOf(cancelled))
}
