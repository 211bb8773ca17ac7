package evolution

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/altarworks/emmaus/internal/types"
)

func newTestGraph() *Graph {
	g := NewGraph()
	g.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	counter := 0
	g.newID = func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}
	return g
}

func sufferingDiscussion() Discussion {
	return Discussion{
		Topic:        "suffering",
		Participants: []string{"paul", "job"},
		Messages: []DiscussionMessage{
			{CharacterID: "job", Content: "Consider this: I have learned that the Lord gives and takes away, and through every loss my trust deepened rather than broke. Remember James 1:2-4 when trials come."},
			{CharacterID: "paul", Content: "I agree, brother. Well said."},
		},
	}
}

func TestProcessDiscussionValidation(t *testing.T) {
	g := newTestGraph()

	if err := g.ProcessDiscussion(Discussion{Topic: " ", Participants: []string{"a", "b"}}); err == nil {
		t.Fatal("expected error for blank topic")
	}
	if err := g.ProcessDiscussion(Discussion{Topic: "hope", Participants: []string{"paul"}}); err == nil {
		t.Fatal("expected error for a single participant")
	}
}

func TestProcessDiscussionLearnsTeaching(t *testing.T) {
	g := newTestGraph()

	if err := g.ProcessDiscussion(sufferingDiscussion()); err != nil {
		t.Fatalf("ProcessDiscussion: %v", err)
	}

	p, ok := g.get("paul")
	if !ok {
		t.Fatal("expected paul to be created")
	}
	bucket := p.char.Insights["job"]
	if bucket == nil {
		t.Fatal("expected insight bucket for job")
	}
	if bucket.InteractionCount != 1 {
		t.Fatalf("expected interaction count 1, got %d", bucket.InteractionCount)
	}
	if len(bucket.LearnedTeachings) != 1 {
		t.Fatalf("expected 1 teaching, got %d", len(bucket.LearnedTeachings))
	}
	teaching := bucket.LearnedTeachings[0]
	if teaching.Topic != "suffering" {
		t.Fatalf("unexpected teaching topic %q", teaching.Topic)
	}
	if len(teaching.SupportingRefs) != 1 || teaching.SupportingRefs[0] != "James 1:2-4" {
		t.Fatalf("unexpected supporting refs %v", teaching.SupportingRefs)
	}
	// Scripture-backed and long: 0.4 + 0.3 + 0.1.
	if teaching.ImpactScore < 0.79 || teaching.ImpactScore > 0.81 {
		t.Fatalf("unexpected impact score %f", teaching.ImpactScore)
	}
	if len(bucket.Agreements) != 1 {
		t.Fatalf("expected paul's reply to register agreement, got %v", bucket.Agreements)
	}
	if !strings.Contains(bucket.SharedScriptures[0], "James 1:2-4") {
		t.Fatalf("unexpected shared scriptures %v", bucket.SharedScriptures)
	}
	if p.char.EvolutionVersion != 1 {
		t.Fatalf("expected evolution version 1, got %d", p.char.EvolutionVersion)
	}
}

func TestInteractionCountPerDiscussion(t *testing.T) {
	g := newTestGraph()

	for i := 0; i < 3; i++ {
		if err := g.ProcessDiscussion(sufferingDiscussion()); err != nil {
			t.Fatalf("ProcessDiscussion #%d: %v", i+1, err)
		}
	}

	p, _ := g.get("paul")
	if got := p.char.Insights["job"].InteractionCount; got != 3 {
		t.Fatalf("expected interaction count 3, got %d", got)
	}
	if p.char.EvolutionVersion != 3 {
		t.Fatalf("expected strictly increasing version, got %d", p.char.EvolutionVersion)
	}
}

func TestInfluenceScoreIsMonotone(t *testing.T) {
	g := newTestGraph()

	var last float64
	for i := 0; i < 5; i++ {
		if err := g.ProcessDiscussion(sufferingDiscussion()); err != nil {
			t.Fatalf("ProcessDiscussion #%d: %v", i+1, err)
		}
		p, _ := g.get("paul")
		score := p.char.Insights["job"].InfluenceScore
		if score < last {
			t.Fatalf("influence score decreased: %f -> %f", last, score)
		}
		if score < 0 || score > 1 {
			t.Fatalf("influence score out of range: %f", score)
		}
		last = score
	}
	if last == 0 {
		t.Fatal("expected a positive influence score")
	}
}

func TestGrowthLogIsAppendOnly(t *testing.T) {
	g := newTestGraph()

	var lengths []int
	for i := 0; i < 3; i++ {
		if err := g.ProcessDiscussion(sufferingDiscussion()); err != nil {
			t.Fatalf("ProcessDiscussion: %v", err)
		}
		p, _ := g.get("paul")
		lengths = append(lengths, len(p.char.GrowthLog))
	}
	for i := 1; i < len(lengths); i++ {
		if lengths[i] <= lengths[i-1] {
			t.Fatalf("growth log shrank or stalled: %v", lengths)
		}
	}
}

func TestStages(t *testing.T) {
	g := newTestGraph()

	if got := g.Stage("paul"); got != types.StagePristine {
		t.Fatalf("unknown persona should be pristine, got %s", got)
	}

	g.Register(types.StaticCore{CharacterID: "paul", Name: "Paul"})
	if got := g.Stage("paul"); got != types.StagePristine {
		t.Fatalf("registered persona without insights should be pristine, got %s", got)
	}

	if err := g.ProcessDiscussion(sufferingDiscussion()); err != nil {
		t.Fatalf("ProcessDiscussion: %v", err)
	}
	if got := g.Stage("paul"); got != types.StageEvolving {
		t.Fatalf("persona with growth events should be evolving, got %s", got)
	}

	// Teachings from two distinct sources synthesize wisdom.
	three := Discussion{
		Topic:        "suffering",
		Participants: []string{"paul", "job", "david"},
		Messages: []DiscussionMessage{
			{CharacterID: "job", Content: "Remember that endurance is born in the night seasons, and the dawn belongs to those who hold fast to the Lord through them."},
			{CharacterID: "david", Content: "Psalm 23:4 says though I walk through the valley of the shadow of death, I will fear no evil."},
		},
	}
	if err := g.ProcessDiscussion(three); err != nil {
		t.Fatalf("ProcessDiscussion: %v", err)
	}
	if got := g.Stage("paul"); got != types.StageSynthesized {
		t.Fatalf("persona with wisdom should be synthesized, got %s", got)
	}

	p, _ := g.get("paul")
	if len(p.char.Wisdom) != 1 {
		t.Fatalf("expected 1 synthesized wisdom, got %d", len(p.char.Wisdom))
	}
	if len(p.char.Wisdom[0].Sources) != 2 {
		t.Fatalf("expected 2 wisdom sources, got %v", p.char.Wisdom[0].Sources)
	}
	if _, ok := p.char.Dynamic.RefinedUnderstandings["suffering"]; !ok {
		t.Fatal("expected refined understanding for the topic")
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	g := newTestGraph()

	g.Register(types.StaticCore{CharacterID: "Paul", Name: "Paul", Identity: "apostle"})
	g.Register(types.StaticCore{CharacterID: "paul", Name: "Someone Else"})

	p, ok := g.get("paul")
	if !ok {
		t.Fatal("expected persona")
	}
	if p.char.Core.Name != "Paul" {
		t.Fatalf("static core was overwritten: %+v", p.char.Core)
	}
}

func TestBuildEvolvedPrompt(t *testing.T) {
	g := newTestGraph()
	base := "You are Paul."

	// Toggle off returns the base prompt untouched.
	if got := g.BuildEvolvedPrompt("paul", base, "suffering", false); got != base {
		t.Fatalf("expected base prompt, got %q", got)
	}
	// Unknown persona returns the base prompt.
	if got := g.BuildEvolvedPrompt("paul", base, "suffering", true); got != base {
		t.Fatalf("expected base prompt for unknown persona, got %q", got)
	}

	if err := g.ProcessDiscussion(sufferingDiscussion()); err != nil {
		t.Fatalf("ProcessDiscussion: %v", err)
	}

	got := g.BuildEvolvedPrompt("paul", base, "suffering", true)
	if !strings.HasPrefix(got, base) {
		t.Fatalf("evolved prompt must extend the base: %q", got)
	}
	if !strings.Contains(got, "From job:") {
		t.Fatalf("expected learned teaching in prompt: %q", got)
	}

	// Unrelated topic finds nothing.
	if got := g.BuildEvolvedPrompt("paul", base, "marriage", true); got != base {
		t.Fatalf("expected base prompt for unrelated topic, got %q", got)
	}
}

func TestEvolutionSummary(t *testing.T) {
	g := newTestGraph()

	if _, err := g.EvolutionSummary("ghost", 3); err == nil {
		t.Fatal("expected error for unknown persona")
	}

	if err := g.ProcessDiscussion(sufferingDiscussion()); err != nil {
		t.Fatalf("ProcessDiscussion: %v", err)
	}
	summary, err := g.EvolutionSummary("paul", 2)
	if err != nil {
		t.Fatalf("EvolutionSummary: %v", err)
	}
	if summary.Stage != types.StageEvolving {
		t.Fatalf("unexpected stage %s", summary.Stage)
	}
	if summary.Metrics.InsightsLearned != 1 || summary.Metrics.TotalInteractions != 1 {
		t.Fatalf("unexpected metrics %+v", summary.Metrics)
	}
	if summary.Metrics.StrongestInfluence != "job" {
		t.Fatalf("unexpected strongest influence %q", summary.Metrics.StrongestInfluence)
	}
	if len(summary.TopInfluences) != 1 {
		t.Fatalf("unexpected influences %+v", summary.TopInfluences)
	}
	if len(summary.RecentGrowth) == 0 || len(summary.RecentGrowth) > 2 {
		t.Fatalf("unexpected recent growth window %d", len(summary.RecentGrowth))
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	g := newTestGraph()
	if err := g.ProcessDiscussion(sufferingDiscussion()); err != nil {
		t.Fatalf("ProcessDiscussion: %v", err)
	}

	path := filepath.Join(t.TempDir(), "evolution.json")
	if err := g.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored := newTestGraph()
	restored.Load(path)

	p, ok := restored.get("paul")
	if !ok {
		t.Fatal("expected paul after load")
	}
	if p.char.Insights["job"] == nil || p.char.Insights["job"].InteractionCount != 1 {
		t.Fatalf("insights not restored: %+v", p.char.Insights)
	}
	if p.char.EvolutionVersion != 1 {
		t.Fatalf("version not restored, got %d", p.char.EvolutionVersion)
	}
}

func TestSaveWhileProcessingDiscussions(t *testing.T) {
	g := NewGraph()
	path := filepath.Join(t.TempDir(), "evolution.json")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			if err := g.ProcessDiscussion(sufferingDiscussion()); err != nil {
				t.Errorf("ProcessDiscussion: %v", err)
				return
			}
		}
	}()

	for {
		if err := g.Save(path); err != nil {
			t.Fatalf("Save: %v", err)
		}
		select {
		case <-done:
			if err := g.Save(path); err != nil {
				t.Fatalf("final Save: %v", err)
			}
			restored := NewGraph()
			restored.Load(path)
			p, ok := restored.get("paul")
			if !ok {
				t.Fatal("expected paul after load")
			}
			if p.char.Insights["job"] == nil || p.char.Insights["job"].InteractionCount != 20 {
				t.Fatalf("snapshot incomplete: %+v", p.char.Insights)
			}
			return
		default:
		}
	}
}

func TestLoadMissingOrCorruptDegrades(t *testing.T) {
	g := newTestGraph()
	g.Load(filepath.Join(t.TempDir(), "nope.json"))
	if len(g.personas) != 0 {
		t.Fatalf("expected empty graph, got %d personas", len(g.personas))
	}
}
