package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/config"
	"github.com/mrz1836/multisig/internal/descriptor"
	"github.com/mrz1836/multisig/internal/hdkey"
	"github.com/mrz1836/multisig/internal/output"
)

// testPassword is long enough to pass the new-password check.
const testPassword = "correct horse battery"

// testMnemonic is the BIP39 all-abandon vector; its master fingerprint is 73c5da0a.
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

type testEnv struct {
	cfg    *config.Config
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// newTestEnv points the CLI at a fresh home directory with JSON output and
// restores every package-level flag variable afterwards.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	resetFlags(t)

	c := config.Defaults()
	c.Home = t.TempDir()
	c.Logging.Level = "off"
	c.Logging.File = ""
	require.NoError(t, c.Validate())

	return &testEnv{cfg: c, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
}

// cmd returns a command wired to the environment. Output buffers are reset.
func (e *testEnv) cmd() *cobra.Command {
	e.stdout.Reset()
	e.stderr.Reset()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(e.stdout)
	cmd.SetErr(e.stderr)
	SetCmdContext(cmd, &CommandContext{
		Cfg: e.cfg,
		Log: config.NullLogger(),
		Fmt: output.NewFormatter(output.FormatJSON, e.stdout),
	})
	return cmd
}

// decode unmarshals the last command's JSON output into v.
func (e *testEnv) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.stdout.Bytes(), v), e.stdout.String())
}

func resetFlags(t *testing.T) {
	t.Helper()
	var (
		savedWallet, savedXpubs, savedKeys = walletRef, createXpubs, createKeys
		savedThreshold, savedIndex         = createThreshold, keyIndex
		savedWords, savedForce             = keyWords, createForce
		savedPassphrase, savedVerify       = keyPassphrase, keyVerify
		savedQR, savedScripts              = addressQR, addressScripts
		savedNoCache, savedDetail          = balanceNoCache, balanceDetail
		savedCheck, savedVerbose           = versionCheck, verbose
		savedPubkeys, savedPubThreshold    = pubkeyList, pubkeyThreshold
		savedHome, savedNet, savedOutput   = homeDir, networkName, outputFormat
		savedReader                        = newBalanceReader
		savedVersionClient                 = newVersionClient
		savedBuild                         = buildInfo
		savedPassword                      = promptPasswordFn
		savedNewPassword                   = promptNewPasswordFn
		savedPassphraseFn                  = promptPassphraseFn
	)
	t.Cleanup(func() {
		walletRef, createXpubs, createKeys = savedWallet, savedXpubs, savedKeys
		createThreshold, keyIndex = savedThreshold, savedIndex
		keyWords, createForce = savedWords, savedForce
		keyPassphrase, keyVerify = savedPassphrase, savedVerify
		addressQR, addressScripts = savedQR, savedScripts
		balanceNoCache, balanceDetail = savedNoCache, savedDetail
		versionCheck, verbose = savedCheck, savedVerbose
		pubkeyList, pubkeyThreshold = savedPubkeys, savedPubThreshold
		homeDir, networkName, outputFormat = savedHome, savedNet, savedOutput
		newBalanceReader = savedReader
		newVersionClient = savedVersionClient
		buildInfo = savedBuild
		promptPasswordFn = savedPassword
		promptNewPasswordFn = savedNewPassword
		promptPassphraseFn = savedPassphraseFn
	})

	walletRef = defaultWalletName
	createXpubs, createKeys = "", ""
	createThreshold, keyIndex, keyWords = 0, 0, 24
	createForce, keyPassphrase, keyVerify = false, false, false
	addressQR, addressScripts = false, false
	balanceNoCache, balanceDetail, versionCheck = false, false, false
	pubkeyList, pubkeyThreshold = "", 0
}

// withMockPrompts replaces the password prompts so no terminal is needed.
func withMockPrompts(t *testing.T, password string) {
	t.Helper()
	t.Setenv(config.EnvKeyPassword, "")
	promptPasswordFn = func(_ string) ([]byte, error) { return []byte(password), nil }
	promptNewPasswordFn = func() ([]byte, error) { return []byte(password), nil }
	promptPassphraseFn = func() (string, error) { return "", nil }
}

// testXpubs returns n distinct testnet account key descriptors.
func testXpubs(t *testing.T, n int) []string {
	t.Helper()
	out := make([]string, 0, n)
	for i := range n {
		seed, err := hdkey.NewSeed(bytes.Repeat([]byte{byte(0x40 + i)}, 32))
		require.NoError(t, err)
		master, err := hdkey.NewMaster(seed, chain.Testnet)
		require.NoError(t, err)
		path := hdkey.AccountPath(chain.Testnet, 0)
		account, err := master.Derive(path)
		require.NoError(t, err)
		out = append(out, descriptor.NewParticipantKey(master, account, path).String())
		seed.Destroy()
	}
	return out
}
