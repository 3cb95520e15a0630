// Package testsupport holds helpers shared by package tests: temp-directory
// configs, ledger stores, and fixture file writers.
package testsupport
