// Package domain contains the core entities of the membership ledger:
// members with their credentials and the payment obligations they owe.
// Types here are free of infrastructure concerns so storage, services and
// transports can share them.
package domain
