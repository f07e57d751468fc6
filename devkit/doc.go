// Package devkit provides test doubles and conformance checks for code built
// on the bank connect client.
package devkit
