// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package sim

import (
	"fmt"
	"time"
)

// Money limits for cheat commands, in cents.
const (
	maxMoney = 99_999_999_900
	minMoney = -99_999_999_900
)

// RegisterCheats registers the cheat command set on the registry.
// Cheats are ordinary game commands: they mutate state only through
// the dispatcher, so they stay deterministic across network peers.
func RegisterCheats(r *Registry) {
	cheats := []CommandEntry{
		{Name: "cheat.setmoney", Handler: cheatSetMoney, Source: "cheat"},
		{Name: "cheat.addmoney", Handler: cheatAddMoney, Source: "cheat"},
		{Name: "cheat.clearloan", Handler: cheatClearLoan, Source: "cheat"},
		{Name: "cheat.generateguests", Handler: cheatGenerateGuests, Source: "cheat"},
		{Name: "cheat.removeallguests", Handler: cheatRemoveAllGuests, Source: "cheat"},
		{Name: "cheat.removelitter", Handler: cheatRemoveLitter, Source: "cheat"},
		{Name: "cheat.fixrides", Handler: cheatFixRides, Source: "cheat"},
		{Name: "cheat.tenminuteinspections", Handler: cheatTenMinuteInspections, Source: "cheat"},
	}
	for _, c := range cheats {
		r.Register(c)
	}
}

func clampMoney(amount int64) int64 {
	if amount > maxMoney {
		return maxMoney
	}
	if amount < minMoney {
		return minMoney
	}
	return amount
}

func cheatSetMoney(state *State, args map[string]any) error {
	amount, ok := intArg(args, "amount")
	if !ok {
		return fmt.Errorf("cheat.setmoney: missing or invalid 'amount'")
	}
	state.Money = clampMoney(amount)
	return nil
}

func cheatAddMoney(state *State, args map[string]any) error {
	amount, ok := intArg(args, "amount")
	if !ok {
		return fmt.Errorf("cheat.addmoney: missing or invalid 'amount'")
	}
	state.Money = clampMoney(state.Money + amount)
	return nil
}

func cheatClearLoan(state *State, _ map[string]any) error {
	state.Loan = 0
	return nil
}

func cheatGenerateGuests(state *State, args map[string]any) error {
	count, ok := intArg(args, "count")
	if !ok || count < 0 {
		return fmt.Errorf("cheat.generateguests: missing or invalid 'count'")
	}
	state.GuestCount += int(count)
	return nil
}

func cheatRemoveAllGuests(state *State, _ map[string]any) error {
	state.GuestCount = 0
	return nil
}

func cheatRemoveLitter(state *State, _ map[string]any) error {
	state.LitterCount = 0
	return nil
}

func cheatFixRides(state *State, _ map[string]any) error {
	for i := range state.Rides {
		state.Rides[i].BrokenDown = false
	}
	return nil
}

func cheatTenMinuteInspections(state *State, _ map[string]any) error {
	for i := range state.Rides {
		state.Rides[i].Inspection = 10 * time.Minute
	}
	return nil
}
