package report

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/portalwatch/internal/model"
)

var testTime = time.Date(2024, 3, 9, 8, 5, 7, 0, time.UTC)

func sampleResult() *model.WorkflowResult {
	return &model.WorkflowResult{
		Variant: model.VariantHTML,
		IllegalPrograms: model.Entries{Rows: []model.TableRow{
			{"2024-03-01", "CCTV-1", "content"},
			{"2024-03-02", "Hunan TV", "subtitle"},
		}},
		Announcements: model.Entries{Rows: []model.TableRow{
			{"2024-03-03", "Notice A"},
		}},
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	t.Run("renders both sections", func(t *testing.T) {
		t.Parallel()

		title, body := Format(sampleResult(), testTime)
		if title != "登录成功 2024-03-09 08:05:07" {
			t.Errorf("title = %q", title)
		}
		want := "违规节目：\n" +
			"2024-03-01 CCTV-1 content\n" +
			"2024-03-02 Hunan TV subtitle\n" +
			"\n管理动态：\n" +
			"2024-03-03 Notice A\n"
		if diff := cmp.Diff(want, body); diff != "" {
			t.Errorf("body mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty sections keep headings", func(t *testing.T) {
		t.Parallel()

		_, body := Format(&model.WorkflowResult{}, testTime)
		if body != "违规节目：\n\n管理动态：\n" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("records use configured fields", func(t *testing.T) {
		t.Parallel()

		result := &model.WorkflowResult{
			Variant: model.VariantJSONP,
			IllegalPrograms: model.Entries{
				Records: []model.Record{{{Name: "id", Value: "7"}, {Name: "title", Value: "T"}}},
				Fields:  []string{"title"},
			},
		}
		_, body := Format(result, testTime)
		if body != "违规节目：\nT\n\n管理动态：\n" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()

		t1, b1 := Format(sampleResult(), testTime)
		t2, b2 := Format(sampleResult(), testTime)
		if t1 != t2 || b1 != b2 {
			t.Error("expected identical output for identical input")
		}
	})
}

func TestFormatFailure(t *testing.T) {
	t.Parallel()

	title, body := FormatFailure("login", errors.New("boom"), testTime)
	if title != "登录失败 2024-03-09 08:05:07" {
		t.Errorf("title = %q", title)
	}
	if body != "步骤：login\n错误：boom\n" {
		t.Errorf("body = %q", body)
	}

	_, body = FormatFailure("", nil, testTime)
	if body != "错误：unknown error\n" {
		t.Errorf("body = %q", body)
	}
}

func TestFormatRun(t *testing.T) {
	t.Parallel()

	ok := model.NewRunReport("alice@portal", testTime.Add(-time.Second))
	ok.Succeed(sampleResult(), testTime)
	title, _ := FormatRun(ok)
	if title != "登录成功 2024-03-09 08:05:07" {
		t.Errorf("title = %q", title)
	}

	failed := model.NewRunReport("alice@portal", testTime)
	failed.Fail("top frame", errors.New("not logged in"), testTime)
	title, body := FormatRun(failed)
	if title != "登录失败 2024-03-09 08:05:07" {
		t.Errorf("title = %q", title)
	}
	if body != "步骤：top frame\n错误：not logged in\n" {
		t.Errorf("body = %q", body)
	}
}
