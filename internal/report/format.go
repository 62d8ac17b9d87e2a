package report

import (
	"errors"
	"strings"
	"time"

	"github.com/nao1215/portalwatch/internal/model"
)

// TimeLayout is the timestamp format of report titles.
const TimeLayout = "2006-01-02 15:04:05"

// Section headings and title prefixes of the mail report.
const (
	successTitle         = "登录成功 "
	failureTitle         = "登录失败 "
	illegalProgramsTitle = "违规节目："
	announcementsTitle   = "管理动态："
)

// Format renders a successful result as a mail title and body.
//
// The body lists the violation entries and then the announcements, one line
// per entry with its fields joined by single spaces. Format is pure: the same
// result and time always give the same text.
func Format(result *model.WorkflowResult, now time.Time) (title, body string) {
	title = successTitle + now.Format(TimeLayout)

	var sb strings.Builder
	sb.WriteString(illegalProgramsTitle + "\n")
	if result != nil {
		writeLines(&sb, result.IllegalPrograms.Lines())
	}
	sb.WriteString("\n" + announcementsTitle + "\n")
	if result != nil {
		writeLines(&sb, result.Announcements.Lines())
	}
	return title, sb.String()
}

// FormatFailure renders a failed run as a mail title and body naming the
// step that aborted it.
func FormatFailure(step string, err error, now time.Time) (title, body string) {
	title = failureTitle + now.Format(TimeLayout)
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return title, failureBody(step, msg)
}

// FormatRun renders a finished run, successful or not.
func FormatRun(r *model.RunReport) (title, body string) {
	if r.Success {
		return Format(r.Result, r.FinishedAt)
	}
	var err error
	if r.Error != "" {
		err = errors.New(r.Error)
	}
	return FormatFailure(r.FailedStep, err, r.FinishedAt)
}

func failureBody(step, msg string) string {
	if step == "" {
		return "错误：" + msg + "\n"
	}
	return "步骤：" + step + "\n错误：" + msg + "\n"
}

func writeLines(sb *strings.Builder, lines [][]string) {
	for _, line := range lines {
		sb.WriteString(strings.Join(line, " "))
		sb.WriteByte('\n')
	}
}
