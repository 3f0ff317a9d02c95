package points

import "strings"

// EventType is a closed set of user actions, each mapped to a fixed point
// award. Unrecognized input resolves to EventTypeUseNewFeature rather than
// an error, so the fallback is explicit instead of a lookup miss.
type EventType string

const (
	EventTypeDailyLogin        EventType = "daily_login"
	EventTypeExercise          EventType = "exercise"
	EventTypeReadArticle       EventType = "read_article"
	EventTypeViewPolicy        EventType = "view_policy"
	EventTypeCompleteChallenge EventType = "complete_challenge"
	EventTypeInviteFriend      EventType = "invite_friend"
	EventTypeShareAchievement  EventType = "share_achievement"
	EventTypeUseNewFeature     EventType = "use_new_feature"
	EventTypeHealthScore       EventType = "health_score"
	EventTypeCheckup           EventType = "checkup"
)

// pointsByType is the authoritative event type -> points table.
var pointsByType = map[EventType]int{
	EventTypeDailyLogin:        5,
	EventTypeExercise:          10,
	EventTypeReadArticle:       7,
	EventTypeViewPolicy:        15,
	EventTypeCompleteChallenge: 50,
	EventTypeInviteFriend:      20,
	EventTypeShareAchievement:  5,
	EventTypeUseNewFeature:     30,
	EventTypeHealthScore:       15,
	EventTypeCheckup:           25,
}

// aliases maps accepted alternate spellings to canonical types. Workouts
// are stored as "exercise".
var aliases = map[string]EventType{
	"log_workout": EventTypeExercise,
	"workout":     EventTypeExercise,
}

// ResolveEventType maps raw input to a canonical event type and its point
// award. Unknown input falls back to EventTypeUseNewFeature (30 points).
func ResolveEventType(raw string) (EventType, int) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := aliases[normalized]; ok {
		return alias, pointsByType[alias]
	}
	candidate := EventType(normalized)
	if award, ok := pointsByType[candidate]; ok {
		return candidate, award
	}
	return EventTypeUseNewFeature, pointsByType[EventTypeUseNewFeature]
}

// Award returns the fixed point value for a canonical event type.
func Award(t EventType) int {
	if award, ok := pointsByType[t]; ok {
		return award
	}
	return pointsByType[EventTypeUseNewFeature]
}

// messagesByType holds the encouragement line returned after recording an
// event of each type.
var messagesByType = map[EventType]string{
	EventTypeDailyLogin:        "Welcome back! Keep up the streak!",
	EventTypeExercise:          "Great workout! Your body will thank you!",
	EventTypeReadArticle:       "Knowledge is power! Keep learning!",
	EventTypeViewPolicy:        "Smart move checking out our policies!",
	EventTypeCompleteChallenge: "Challenge conquered! You're unstoppable!",
	EventTypeInviteFriend:      "Thanks for spreading the wellness!",
	EventTypeShareAchievement:  "Sharing is caring!",
	EventTypeUseNewFeature:     "Thanks for trying something new!",
	EventTypeHealthScore:       "Health score logged. Keep it up!",
	EventTypeCheckup:           "Checkup recorded. Prevention pays off!",
}

// Message returns the encouragement line for an event, appending a level-up
// note when the event pushed the user over a level boundary.
func Message(t EventType, levelUp bool) string {
	msg, ok := messagesByType[t]
	if !ok {
		msg = "Great job!"
	}
	if levelUp {
		msg += " Level up!"
	}
	return msg
}
