// Package otp generates numeric one-time codes for out-of-band verification
// (email and SMS confirmation flows).
//
// Codes are produced from crypto/rand with leading zeros preserved, so a
// 6-digit code is always exactly 6 ASCII digits. Match compares a submitted
// code in constant time to avoid timing side-channels.
package otp
