// Package amm encodes the administrative instructions of the AMM program
// and decodes its configuration account.
package amm

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// DefaultProgramID is the localnet deployment of the AMM program.
const DefaultProgramID = "4sRbFuajHVG181psKiK7G2JBSzbcvVD9RBVbo72DE9TQ"

var (
	System  = solana.SystemProgramID
	SysRent = solana.SysVarRentPubkey
)

// Anchor discriminators: first 8 bytes of sha256("<namespace>:<name>").
var (
	InitializeDiscriminator    = bin.SighashTypeID(bin.SIGHASH_GLOBAL_NAMESPACE, "initialize")
	SetFeeDiscriminator        = bin.SighashTypeID(bin.SIGHASH_GLOBAL_NAMESPACE, "set_fee")
	SetFeeToDiscriminator      = bin.SighashTypeID(bin.SIGHASH_GLOBAL_NAMESPACE, "set_fee_to")
	ConfigAccountDiscriminator = bin.SighashTypeID(bin.SIGHASH_ACCOUNT_NAMESPACE, "Config")
)

// MaxFeeBasisPoints is exclusive: the program requires fee < 10000.
const MaxFeeBasisPoints = 10000

// ConfigAccountSize is discriminator + bump + owner + fee_to + fee.
const ConfigAccountSize = bin.ACCOUNT_DISCRIMINATOR_SIZE + 1 + solana.PublicKeyLength + solana.PublicKeyLength + 8
