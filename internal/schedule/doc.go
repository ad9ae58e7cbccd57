// Package schedule holds the precomputed time-triggered schedule being
// verified and decodes its cells into transmission records.
//
// # Table Format
//
// Schedules are read from CSV. The header row names the execution units,
// one per column; an optional leading "time" (or "slot") column is
// ignored. Every following row is one time slot:
//
//	time,A,B,C
//	0,"push(F0: A->B, #1)",wait(#1),sleep
//	1,sleep,"if has(F0) push(F0: B->C, #2) else pull(F1: C->B, #2)",wait(#2)
//
// # Instruction Grammar
//
// A cell holds zero or more instructions separated by ';'. Only push and
// pull instructions describe transmissions:
//
//	push(<flow>: <src>-><sink>[, #<channel>])
//	pull(<flow>: <src>-><sink>[, #<channel>])
//
// Both may appear inside "if has(<flow>) ... else ..." chains; every
// branch is reported because the schedule reserves the slot for each.
// Anything else (sleep, wait, malformed text) decodes to no records.
package schedule
