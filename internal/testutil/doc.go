// Package testutil holds signal generators and assertions shared by the
// synth tests.
package testutil
