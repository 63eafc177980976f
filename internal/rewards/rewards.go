// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package rewards implements the points, levels and badges members earn
// for taking part in the blog.
package rewards

import (
	"errors"
	"fmt"

	"cognitio/internal/models"
)

// Action is something a member does that earns points.
type Action string

const (
	ActionCreatePost Action = "create_post"
	ActionComment    Action = "comment"
	ActionShare      Action = "share"
	ActionReact      Action = "react"
)

// Badge names.
const (
	BadgeNewMember      = "New Member"
	BadgeContentCreator = "Content Creator"
	BadgeCommenter      = "Commenter"
	BadgeSharer         = "Sharer"
	BadgeReactor        = "Reactor"
)

// PointsPerLevel is the number of points between two levels.
const PointsPerLevel = 100

// ErrUnknownAction is returned by Apply for actions outside the table.
var ErrUnknownAction = errors.New("unknown reward action")

// Rule ties an action to the points it earns and the badge it unlocks.
type Rule struct {
	Action      Action `json:"action"`
	Points      int    `json:"points"`
	Badge       string `json:"badge"`
	Threshold   int    `json:"threshold"`
	Description string `json:"description"`
}

var rules = []Rule{
	{Action: ActionCreatePost, Points: 10, Badge: BadgeContentCreator, Threshold: 200, Description: "creating a post"},
	{Action: ActionComment, Points: 5, Badge: BadgeCommenter, Threshold: 100, Description: "commenting on a post"},
	{Action: ActionShare, Points: 7, Badge: BadgeSharer, Threshold: 150, Description: "sharing a post"},
	{Action: ActionReact, Points: 3, Badge: BadgeReactor, Threshold: 50, Description: "reacting to a post"},
}

// Rules returns a copy of the reward table.
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}

// RuleFor looks up the rule for a.
func RuleFor(a Action) (Rule, bool) {
	for _, r := range rules {
		if r.Action == a {
			return r, true
		}
	}
	return Rule{}, false
}

// Level maps a point total to a level, starting at 1.
func Level(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// Award describes the outcome of one Apply call.
type Award struct {
	Action    Action `json:"action"`
	Points    int    `json:"points"`
	OldPoints int    `json:"old_points"`
	NewPoints int    `json:"new_points"`
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
	Badge     string `json:"badge,omitempty"`
}

// LeveledUp reports whether the award moved the user to a higher level.
func (a Award) LeveledUp() bool {
	return a.NewLevel > a.OldLevel
}

// Message is the short text shown to the member after the award.
func (a Award) Message() string {
	r, _ := RuleFor(a.Action)
	return fmt.Sprintf("+%d points for %s", a.Points, r.Description)
}

// Apply adds the points for action to u and unlocks the action's badge
// once the new total reaches its threshold. A badge is granted at most
// once. u is not modified; the updated copy is returned.
func Apply(u models.User, action Action) (models.User, Award, error) {
	rule, ok := RuleFor(action)
	if !ok {
		return u, Award{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	award := Award{
		Action:    action,
		Points:    rule.Points,
		OldPoints: u.Points,
		NewPoints: u.Points + rule.Points,
		OldLevel:  Level(u.Points),
	}
	award.NewLevel = Level(award.NewPoints)

	u.Points = award.NewPoints
	u.Badges = append([]string(nil), u.Badges...)
	if award.NewPoints >= rule.Threshold && !u.HasBadge(rule.Badge) {
		u.Badges = append(u.Badges, rule.Badge)
		award.Badge = rule.Badge
	}
	return u, award, nil
}

// InitialBadges is the badge set every new member starts with.
func InitialBadges() []string {
	return []string{BadgeNewMember}
}
