// Package progression holds the pure gamification rules: completion
// points, level derivation, and badge eligibility. It knows nothing
// about storage or HTTP so the rule set is independently testable.
package progression

const (
	basePoints     = 10
	maxStreakBonus = 50
	pointsPerLevel = 100
)

// CompletionPoints returns the award for completing a habit with the
// given streak before the completion is counted. The streak bonus is
// capped at 50.
func CompletionPoints(currentStreak int) int {
	bonus := currentStreak * 2
	if bonus > maxStreakBonus {
		bonus = maxStreakBonus
	}
	return basePoints + bonus
}

// LevelForPoints derives a level from a running point total.
func LevelForPoints(points int) int {
	return points/pointsPerLevel + 1
}

// BadgeSpec describes an awardable badge.
type BadgeSpec struct {
	Name        string
	Icon        string
	Description string
}

// Counts are the aggregates badge predicates are evaluated against,
// freshly computed at each completion event.
type Counts struct {
	Habits      int // habits owned, lifetime
	Completions int // completions across all habits, lifetime
	Streak      int // streak just achieved by this completion
	Level       int // level after this completion's points
}

type badgeRule struct {
	spec      BadgeSpec
	satisfied func(Counts) bool
}

// completionRules is the ordered rule table evaluated on every habit
// completion. Thresholds are ">=" except First Step, which requires the
// exact first-habit/first-completion combination.
var completionRules = []badgeRule{
	{BadgeSpec{"First Step", "🌱", "Created and completed your first habit"}, func(c Counts) bool { return c.Habits == 1 && c.Completions == 1 }},
	{BadgeSpec{"Week Warrior", "🔥", "Maintained a 7-day streak"}, func(c Counts) bool { return c.Streak >= 7 }},
	{BadgeSpec{"Month Master", "⚡", "Achieved a 30-day streak"}, func(c Counts) bool { return c.Streak >= 30 }},
	{BadgeSpec{"Century Champion", "💯", "Reached an incredible 100-day streak"}, func(c Counts) bool { return c.Streak >= 100 }},
	{BadgeSpec{"Dedicated", "🎯", "Completed 10 habits"}, func(c Counts) bool { return c.Completions >= 10 }},
	{BadgeSpec{"Committed", "💪", "Completed 50 habits"}, func(c Counts) bool { return c.Completions >= 50 }},
	{BadgeSpec{"Hundred Club", "🏆", "Reached 100 total completions"}, func(c Counts) bool { return c.Completions >= 100 }},
	{BadgeSpec{"Year Long", "🎊", "Completed 365 habits - a full year!"}, func(c Counts) bool { return c.Completions >= 365 }},
	{BadgeSpec{"Rising Star", "⭐", "Reached Level 5"}, func(c Counts) bool { return c.Level >= 5 }},
	{BadgeSpec{"Habit Hero", "🦸", "Reached Level 10"}, func(c Counts) bool { return c.Level >= 10 }},
	{BadgeSpec{"Legendary", "👑", "Reached Level 20"}, func(c Counts) bool { return c.Level >= 20 }},
	{BadgeSpec{"Master Forger", "🔨", "Reached Level 50 - True Master!"}, func(c Counts) bool { return c.Level >= 50 }},
	{BadgeSpec{"Multitasker", "🎨", "Created 5 different habits"}, func(c Counts) bool { return c.Habits >= 5 }},
	{BadgeSpec{"Habit Collector", "📚", "Created 10 different habits"}, func(c Counts) bool { return c.Habits >= 10 }},
}

// EligibleBadges evaluates the completion-time rule table in order and
// returns the badges newly satisfied. has reports whether the user
// already holds a badge name, so a badge is never awarded twice.
func EligibleBadges(counts Counts, has func(name string) bool) []BadgeSpec {
	var earned []BadgeSpec
	for _, rule := range completionRules {
		if rule.satisfied(counts) && !has(rule.spec.Name) {
			earned = append(earned, rule.spec)
		}
	}
	return earned
}

// creationRules fire at habit-creation time on exact habit counts. Two
// of these badge names are also reachable through the completion-time
// table; whichever path fires first wins and the other is a no-op.
var creationRules = []struct {
	count int
	spec  BadgeSpec
}{
	{1, BadgeSpec{"Beginner", "🎯", "Created your first habit"}},
	{5, BadgeSpec{"Multitasker", "🎨", "Created 5 different habits"}},
	{10, BadgeSpec{"Habit Collector", "📚", "Created 10 different habits"}},
}

// CreationBadges returns badges earned by reaching an exact habit count
// at creation time.
func CreationBadges(habitCount int, has func(name string) bool) []BadgeSpec {
	var earned []BadgeSpec
	for _, rule := range creationRules {
		if habitCount == rule.count && !has(rule.spec.Name) {
			earned = append(earned, rule.spec)
		}
	}
	return earned
}
