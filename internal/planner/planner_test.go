package planner

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"facility-planner/internal/models"
)

func testPlanner() *Planner {
	n := 0
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return NewWithSources(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}, func() time.Time { return fixed })
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleElements() []models.Element {
	return []models.Element{
		{ID: "e1", Name: "Roof", Tasks: []models.Task{
			{ID: "t-old", Name: "Inspect", EndDate: date(2024, 1, 1), Cost: 50},
		}},
		{ID: "e2", Name: "Window"},
		{ID: "e3", Name: "Door", Tasks: []models.Task{
			{ID: "t-other", Name: "Other group", EndDate: date(2027, 1, 1), Cost: 10, InGroup: true, GroupID: "g-other"},
		}},
	}
}

func TestCreateTaskGroupExample(t *testing.T) {
	p := testPlanner()
	in := GroupInput{
		Name:       "Paint",
		GroupDate:  date(2026, 3, 1),
		Cost:       500,
		ElementIDs: []string{"e1", "e2"},
	}
	elements, group, err := p.CreateTaskGroup(sampleElements(), in)
	if err != nil {
		t.Fatalf("CreateTaskGroup: %v", err)
	}

	for _, id := range []string{"e1", "e2"} {
		tasks := TasksForElement(elements, id)
		last := tasks[len(tasks)-1]
		if last.GroupID != group.ID || !last.InGroup {
			t.Errorf("%s: task not linked to group: %+v", id, last)
		}
		if !last.EndDate.Equal(date(2026, 1, 1)) {
			t.Errorf("%s: EndDate = %v, want 2026-01-01", id, last.EndDate)
		}
		if last.Cost != 500 || last.Name != "Paint" {
			t.Errorf("%s: task = %+v", id, last)
		}
	}
	if got := len(TasksForElement(elements, "e1")); got != 2 {
		t.Errorf("e1 has %d tasks, want 2 (existing task kept)", got)
	}
	if got := TasksForElement(elements, "e1")[0].ID; got != "t-old" {
		t.Errorf("existing task reordered, first = %s", got)
	}
	if len(TasksForElement(elements, "e3")) != 1 {
		t.Error("unselected element changed")
	}

	groups := []models.TaskGroup{group}
	byYear := GroupsByYear(groups)
	if len(byYear[2026]) != 1 || byYear[2026][0].ID != group.ID {
		t.Errorf("GroupsByYear = %v", byYear)
	}
	if got := TotalCostPerYear(groups)[2026]; got != 500 {
		t.Errorf("TotalCostPerYear[2026] = %v, want 500", got)
	}
}

func TestCreateTaskGroupIndividual(t *testing.T) {
	p := testPlanner()
	in := GroupInput{
		Name:               "Replace",
		GroupDate:          date(2026, 3, 1),
		Cost:               999,
		AssignIndividually: true,
		IndividualCosts:    map[string]float64{"e1": 120, "e2": 80},
		IndividualDates:    map[string]time.Time{"e2": date(2028, 9, 15)},
		ElementIDs:         []string{"e1", "e2", "e1"},
	}
	elements, group, err := p.CreateTaskGroup(sampleElements(), in)
	if err != nil {
		t.Fatal(err)
	}
	if len(group.Subtasks) != 2 {
		t.Fatalf("duplicate selection not collapsed: %d subtasks", len(group.Subtasks))
	}
	e2 := TasksForElement(elements, "e2")[0]
	if !e2.EndDate.Equal(date(2028, 1, 1)) || e2.Cost != 80 {
		t.Errorf("e2 task = %+v", e2)
	}
	e1 := TasksForElement(elements, "e1")[1]
	if !e1.EndDate.Equal(date(2026, 1, 1)) || e1.Cost != 120 {
		t.Errorf("e1 task = %+v", e1)
	}
	if got := group.TotalCost(); got != 200 {
		t.Errorf("TotalCost = %v, want 200", got)
	}
	if got := TotalCostPerYear([]models.TaskGroup{group})[2026]; got != 200 {
		t.Errorf("TotalCostPerYear = %v, want 200", got)
	}
}

func TestCreateTaskGroupValidation(t *testing.T) {
	valid := GroupInput{Name: "Paint", GroupDate: date(2026, 1, 1), ElementIDs: []string{"e1"}}
	tests := []struct {
		name   string
		mutate func(*GroupInput)
		want   error
	}{
		{"missing name", func(in *GroupInput) { in.Name = "  " }, ErrGroupNameRequired},
		{"missing date", func(in *GroupInput) { in.GroupDate = time.Time{} }, ErrGroupDateRequired},
		{"no elements", func(in *GroupInput) { in.ElementIDs = nil }, ErrNoElementsSelected},
		{"unknown element", func(in *GroupInput) { in.ElementIDs = []string{"e1", "nope"} }, ErrUnknownElement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			original := sampleElements()
			elements := sampleElements()
			_, _, err := testPlanner().CreateTaskGroup(elements, in)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !reflect.DeepEqual(elements, original) {
				t.Error("input mutated on rejected create")
			}
		})
	}
}

func TestCreateThenDeleteRoundTrip(t *testing.T) {
	p := testPlanner()
	original := sampleElements()
	elements, group, err := p.CreateTaskGroup(sampleElements(), GroupInput{
		Name: "Paint", GroupDate: date(2026, 3, 1), Cost: 500, ElementIDs: []string{"e1", "e2", "e3"},
	})
	if err != nil {
		t.Fatal(err)
	}
	groups := []models.TaskGroup{{ID: "g-other"}, group}

	after, remaining := DeleteTaskGroup(elements, groups, group.ID)
	if len(remaining) != 1 || remaining[0].ID != "g-other" {
		t.Errorf("remaining groups = %v", remaining)
	}

	for i, e := range after {
		prev := original[i].Tasks
		if len(e.Tasks) != len(prev)+1 {
			t.Fatalf("%s: %d tasks, want %d", e.ID, len(e.Tasks), len(prev)+1)
		}
		for j := range prev {
			if !reflect.DeepEqual(e.Tasks[j], prev[j]) {
				t.Errorf("%s: pre-existing task %d changed: %+v", e.ID, j, e.Tasks[j])
			}
		}
		added := e.Tasks[len(prev)]
		if added.GroupID != "" || added.InGroup {
			t.Errorf("%s: added task still linked: %+v", e.ID, added)
		}
		if added.Name != "Paint" || added.Cost != 500 {
			t.Errorf("%s: added task lost fields: %+v", e.ID, added)
		}
	}
}

func TestDeleteUnknownGroupIsNoop(t *testing.T) {
	elements := sampleElements()
	groups := []models.TaskGroup{{ID: "g-other"}}
	after, remaining := DeleteTaskGroup(elements, groups, "missing")
	if !reflect.DeepEqual(after, sampleElements()) {
		t.Error("elements changed")
	}
	if !reflect.DeepEqual(remaining, groups) {
		t.Error("groups changed")
	}
}

func TestUpdateTaskGroupNameOnly(t *testing.T) {
	p := testPlanner()
	in := GroupInput{
		Name:               "Paint",
		GroupDate:          date(2026, 3, 1),
		AssignIndividually: true,
		IndividualCosts:    map[string]float64{"e1": 10, "e2": 20},
		IndividualDates:    map[string]time.Time{"e2": date(2029, 5, 5)},
		ElementIDs:         []string{"e1", "e2"},
	}
	elements, group, err := p.CreateTaskGroup(sampleElements(), in)
	if err != nil {
		t.Fatal(err)
	}
	before := map[string]models.Task{}
	for _, e := range elements {
		for _, task := range e.Tasks {
			before[task.ID] = task
		}
	}

	in.Name = "Paint and seal"
	updated, groups, err := p.UpdateTaskGroup(elements, []models.TaskGroup{group}, group.ID, in)
	if err != nil {
		t.Fatalf("UpdateTaskGroup: %v", err)
	}
	if groups[0].Name != "Paint and seal" || groups[0].ID != group.ID {
		t.Errorf("group = %+v", groups[0])
	}
	for _, e := range updated {
		for _, task := range e.Tasks {
			old := before[task.ID]
			if task.GroupID != group.ID {
				if !reflect.DeepEqual(task, old) {
					t.Errorf("unrelated task changed: %+v", task)
				}
				continue
			}
			if task.Name != "Paint and seal" {
				t.Errorf("task name = %q", task.Name)
			}
			if task.Cost != old.Cost || !task.EndDate.Equal(old.EndDate) {
				t.Errorf("task %s cost/date changed: %+v -> %+v", task.ID, old, task)
			}
		}
	}
	if len(TasksForElement(updated, "e1")) != 2 {
		t.Error("update appended instead of rewriting")
	}
}

func TestUpdateTaskGroupMembership(t *testing.T) {
	p := testPlanner()
	in := GroupInput{Name: "Paint", GroupDate: date(2026, 3, 1), Cost: 300, ElementIDs: []string{"e1", "e2"}}
	elements, group, err := p.CreateTaskGroup(sampleElements(), in)
	if err != nil {
		t.Fatal(err)
	}

	in.ElementIDs = []string{"e2", "e3"}
	in.GroupDate = date(2030, 7, 1)
	updated, groups, err := p.UpdateTaskGroup(elements, []models.TaskGroup{group}, group.ID, in)
	if err != nil {
		t.Fatal(err)
	}

	e1 := TasksForElement(updated, "e1")
	if last := e1[len(e1)-1]; last.GroupID != "" || last.InGroup {
		t.Errorf("dropped member still linked: %+v", last)
	}
	e3 := TasksForElement(updated, "e3")
	if last := e3[len(e3)-1]; last.GroupID != group.ID || !last.EndDate.Equal(date(2030, 1, 1)) {
		t.Errorf("new member task = %+v", last)
	}
	if e3[0].GroupID != "g-other" {
		t.Error("task of another group touched")
	}
	e2 := TasksForElement(updated, "e2")
	if len(e2) != 1 || !e2[0].EndDate.Equal(date(2030, 1, 1)) {
		t.Errorf("kept member task = %+v", e2)
	}
	if got := groups[0].Subtasks; len(got) != 2 || got[0].ElementID != "e2" || got[1].ElementID != "e3" {
		t.Errorf("subtasks = %+v", got)
	}
	if groups[0].Year() != 2030 {
		t.Errorf("group year = %d", groups[0].Year())
	}
}

func TestUpdateTaskGroupErrors(t *testing.T) {
	p := testPlanner()
	in := GroupInput{Name: "Paint", GroupDate: date(2026, 3, 1), ElementIDs: []string{"e1"}}
	elements, group, _ := p.CreateTaskGroup(sampleElements(), in)
	groups := []models.TaskGroup{group}

	if _, _, err := p.UpdateTaskGroup(elements, groups, "missing", in); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("missing group: %v", err)
	}
	bad := in
	bad.Name = ""
	if _, _, err := p.UpdateTaskGroup(elements, groups, group.ID, bad); !errors.Is(err, ErrGroupNameRequired) {
		t.Errorf("missing name: %v", err)
	}
	if groups[0].Name != "Paint" {
		t.Error("group mutated by rejected update")
	}
}

func TestTotalCostPerYearProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		var groups []models.TaskGroup
		want := map[int]float64{}
		for i := 0; i < 1+rng.Intn(12); i++ {
			g := models.TaskGroup{
				ID:                       fmt.Sprintf("g%d", i),
				GroupDate:                date(2025+rng.Intn(6), time.Month(1+rng.Intn(12)), 1+rng.Intn(28)),
				Cost:                     float64(rng.Intn(1000)),
				AssignPricesIndividually: rng.Intn(2) == 0,
			}
			sum := 0.0
			for j := 0; j < rng.Intn(5); j++ {
				c := float64(rng.Intn(500))
				g.Subtasks = append(g.Subtasks, models.Subtask{ElementID: fmt.Sprintf("e%d", j), Cost: c})
				sum += c
			}
			if g.AssignPricesIndividually {
				want[g.GroupDate.Year()] += sum
			} else {
				want[g.GroupDate.Year()] += g.Cost
			}
			groups = append(groups, g)
		}

		got := TotalCostPerYear(groups)
		if len(got) != len(want) {
			t.Fatalf("round %d: years %v, want %v", round, got, want)
		}
		for y, w := range want {
			if math.Abs(got[y]-w) > 1e-9 {
				t.Errorf("round %d: year %d = %v, want %v", round, y, got[y], w)
			}
		}
	}
}

func TestTimelineOrdering(t *testing.T) {
	groups := []models.TaskGroup{
		{ID: "a", GroupDate: date(2028, 1, 1), Cost: 1},
		{ID: "b", GroupDate: date(2026, 5, 1), Cost: 2},
		{ID: "c", GroupDate: date(2028, 9, 1), Cost: 3},
	}
	rows := Timeline(groups)
	if len(rows) != 2 || rows[0].Year != 2026 || rows[1].Year != 2028 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[1].TotalCost != 4 || rows[1].Groups[0].ID != "a" || rows[1].Groups[1].ID != "c" {
		t.Errorf("2028 row = %+v", rows[1])
	}
}

func TestYearStartKeepsLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	got := YearStart(time.Date(2026, 11, 30, 23, 0, 0, 0, loc))
	if !got.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, loc)) || got.Location() != loc {
		t.Errorf("YearStart = %v", got)
	}
}

func TestGroupDateKeepsCalendarDayAcrossZones(t *testing.T) {
	p := testPlanner()
	ams := time.FixedZone("CET", 3600)
	in := GroupInput{Name: "Paint", GroupDate: time.Date(2026, 1, 1, 0, 0, 0, 0, ams), ElementIDs: []string{"e1"}}

	elements, group, err := p.CreateTaskGroup(sampleElements(), in)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !group.GroupDate.Equal(want) || group.GroupDate.Location() != time.UTC {
		t.Errorf("GroupDate = %v, want %v", group.GroupDate, want)
	}

	in.GroupDate = time.Date(2027, 1, 1, 0, 30, 0, 0, ams)
	_, groups, err := p.UpdateTaskGroup(elements, []models.TaskGroup{group}, group.ID, in)
	if err != nil {
		t.Fatal(err)
	}
	if got := groups[0].GroupDate; got.Year() != 2027 || got.Location() != time.UTC || got.Day() != 1 {
		t.Errorf("updated GroupDate = %v", got)
	}
}
