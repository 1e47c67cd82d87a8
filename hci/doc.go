// Package hci implements the HCI command/event codec and the host-side
// command submission and event-routing layer (C2/C3): opcode and event
// tables, the command/event correlation waiter registry, the command
// quota back-pressure, and dispatch of asynchronous events to the
// advertising manager, channel manager, and security database.
package hci
