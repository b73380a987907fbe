// Package planner turns a track list and side constraints into a Plan: it
// orders the tracks, derives the side count, runs the selected allocation
// strategy and resolves the result back into titled tracks per side.
package planner
