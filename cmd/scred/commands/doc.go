// Package commands defines the scred CLI and wires dependencies for subcommands.
//
// Commands
//
//   - signup         Create a directory account
//   - login          Log in and save the account token
//   - logout         Forget the saved token
//   - init           Create the local identity and publish its public key
//   - fingerprint    Print the identity fingerprint
//   - peers          List directory accounts with published keys
//   - trust          Accept a peer's changed public key
//   - chat           Interactive end-to-end encrypted conversation
//   - version        Print the build version
//
// # Configuration
//
// Options come from <home>/config.yaml (or --config) and are overridden by
// flags. The identity passphrase is taken from --passphrase or
// $SCRED_PASSPHRASE. The root command builds an app.Wire before any
// subcommand runs and closes it afterwards, so the identity store is opened
// at most once per process.
package commands
