package diag

import "testing"

func TestCollectorOrderAndFilter(t *testing.T) {
	c := New()
	c.Warnf(TableEmpty, map[string]string{"table": "students"}, "table %s is empty", "students")
	c.Infof(TeacherNotCapable, nil, "teacher %d cannot teach", 3)
	c.Warnf(TableEmpty, nil, "table %s is empty", "teachers")

	items := c.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items got %d", len(items))
	}
	if items[0].Message != "table students is empty" || items[2].Message != "table teachers is empty" {
		t.Fatalf("unexpected order: %v", items)
	}
	if got := len(c.ByCode(TableEmpty)); got != 2 {
		t.Fatalf("expected 2 table warnings got %d", got)
	}
	if c.Warnings() != 2 {
		t.Fatalf("expected 2 warnings got %d", c.Warnings())
	}
	if items[1].String() != "[info] candidate.teacher_not_capable: teacher 3 cannot teach" {
		t.Fatalf("unexpected string %q", items[1].String())
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.Warnf(TableEmpty, nil, "ignored")
	if c.Len() != 0 || c.Items() != nil || c.Warnings() != 0 {
		t.Fatal("nil collector should discard")
	}
}
