package version

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version string = EscrowSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// EscrowSemVer is the current version of the escrow application.
	// It's the Semantic Version of the software.
	EscrowSemVer = "0.3.0"
)

// Protocol is used for implementation agnostic versioning.
type Protocol uint64

// Uint64 returns the Protocol version as a uint64,
// eg. for compatibility with ABCI types.
func (p Protocol) Uint64() uint64 {
	return uint64(p)
}

var (
	// AppProtocol versions the transaction format and the state transition
	// rules. Nodes on different app protocols compute different app hashes.
	AppProtocol Protocol = 1
)
