package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"vault/config"
	"vault/db"
	"vault/keys"
	"vault/logs"
	"vault/types"
	"vault/vault"
	"vault/vm"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const usage = `usage: vaultd [-config file] [-data dir] <command> [flags]

commands:
  keygen                                  生成 ed25519 密钥（base58 种子）
  airdrop  -to <pubkey> -sol <amount>     直接记入 lamports
  init     -owner <seed> -vault-seed <seed>  创建 vault（vault 私钥签名授权）
  deposit  -owner <seed> -vault <pubkey> -amount <lamports>
  withdraw -owner <seed> -vault <pubkey> -amount <lamports>（0 = 余额的 10%）
  show     -vault <pubkey>                打印 vault 记录
  balance  -account <pubkey>              打印账户余额
  receipt  -tx <txid>                     打印交易回执
  info                                    打印程序 id、指令类型和存储统计
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		logs.Error("%v", err)
		os.Exit(1)
	}
}

// node 一次命令执行期间打开的数据库和执行器
type node struct {
	cfg *config.Config
	mgr *db.Manager
	x   *vm.Executor
}

func run(args []string, out io.Writer) error {
	global := flag.NewFlagSet("vaultd", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	var (
		configFile = global.String("config", "", "config file path")
		dataPath   = global.String("data", "", "database directory (overrides config)")
	)
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	rest := global.Args()
	if len(rest) == 0 {
		return errUsage
	}
	cmd, cmdArgs := rest[0], rest[1:]

	if cmd == "keygen" {
		return keygen(out)
	}

	// 1. 加载配置
	cfg, err := loadConfig(*configFile, *dataPath)
	if err != nil {
		return err
	}

	// 2. 打开数据库和执行器
	n, err := openNode(cfg)
	if err != nil {
		return err
	}
	defer n.close()

	// 3. 分发子命令
	switch cmd {
	case "airdrop":
		return n.airdrop(cmdArgs, out)
	case "init", "deposit", "withdraw":
		return n.submit(cmd, cmdArgs, out)
	case "show":
		return n.show(cmdArgs, out)
	case "balance":
		return n.balance(cmdArgs, out)
	case "receipt":
		return n.receipt(cmdArgs, out)
	case "info":
		return n.info(out)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// loadConfig 加载配置；提供了配置文件时覆盖默认值
func loadConfig(configFile, dataPath string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		logs.Debug("Loading config from file: %s", configFile)
		var err error
		if cfg, err = config.LoadFromFile(configFile); err != nil {
			return nil, err
		}
	}
	if dataPath != "" {
		cfg.Database.Path = dataPath
	}
	level, err := logs.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logs.SetLevel(level)
	return cfg, cfg.Validate()
}

func openNode(cfg *config.Config) (*node, error) {
	mgr, err := db.NewManager(cfg, logs.NewNodeLogger("db"))
	if err != nil {
		return nil, err
	}
	x, err := vm.NewExecutorFromConfig(mgr, cfg, logs.NewNodeLogger("vm"))
	if err != nil {
		_ = mgr.Close()
		return nil, err
	}
	return &node{cfg: cfg, mgr: mgr, x: x}, nil
}

func (n *node) close() {
	if err := n.mgr.Close(); err != nil {
		logs.Error("close db: %v", err)
	}
}

func keygen(out io.Writer) error {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return err
	}
	_, pub, err := types.NewKeypairFromSeed(seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "seed:   %s\npubkey: %s\n", base58.Encode(seed), pub)
	return nil
}

func parseSeed(name, s string) (ed25519.PrivateKey, types.Pubkey, error) {
	if s == "" {
		return nil, types.Pubkey{}, fmt.Errorf("%w: missing -%s", errUsage, name)
	}
	return types.NewKeypairFromSeed(base58.Decode(s))
}

func parsePubkey(name, s string) (types.Pubkey, error) {
	if s == "" {
		return types.Pubkey{}, fmt.Errorf("%w: missing -%s", errUsage, name)
	}
	return types.PubkeyFromString(s)
}

func (n *node) airdrop(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("airdrop", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	to := fs.String("to", "", "recipient pubkey")
	sol := fs.String("sol", "1", "amount in SOL")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	key, err := parsePubkey("to", *to)
	if err != nil {
		return err
	}
	lamports, err := vm.ParseSOL(*sol)
	if err != nil {
		return err
	}
	if err := n.x.Airdrop(key, lamports); err != nil {
		return err
	}
	fmt.Fprintf(out, "airdropped %s SOL to %s\n", vm.FormatLamports(lamports), key)
	return nil
}

func (n *node) submit(cmd string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	ownerSeed := fs.String("owner", "", "owner seed (base58)")
	vaultStr := fs.String("vault", "", "vault pubkey")
	vaultSeed := fs.String("vault-seed", "", "vault seed (base58), init only")
	amount := fs.Uint64("amount", 0, "amount in lamports")
	nonce := fs.Uint64("nonce", uint64(time.Now().UnixNano()), "transaction nonce")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	ownerKey, owner, err := parseSeed("owner", *ownerSeed)
	if err != nil {
		return err
	}
	signers := []ed25519.PrivateKey{ownerKey}

	// 初始化需要 vault 私钥签名，其余指令只要地址
	var vaultKey types.Pubkey
	if cmd == "init" {
		vaultPriv, key, err := parseSeed("vault-seed", *vaultSeed)
		if err != nil {
			return err
		}
		if *vaultStr != "" && *vaultStr != key.String() {
			return fmt.Errorf("%w: -vault %s does not match -vault-seed (%s)", errUsage, *vaultStr, key)
		}
		vaultKey = key
		signers = append(signers, vaultPriv)
	} else if vaultKey, err = parsePubkey("vault", *vaultStr); err != nil {
		return err
	}

	var ix types.Instruction
	switch cmd {
	case "init":
		ix = vault.NewInitializeInstruction(n.x.ProgramID, vaultKey, owner)
	case "deposit":
		ix = vault.NewDepositInstruction(n.x.ProgramID, vaultKey, owner, *amount)
	case "withdraw":
		ix = vault.NewWithdrawInstruction(n.x.ProgramID, vaultKey, owner, *amount)
	}

	tx := &types.Transaction{Nonce: *nonce, Instructions: []types.Instruction{ix}}
	tx.Sign(signers...)
	rc, err := n.x.Execute(tx)
	if err != nil {
		return err
	}
	printReceipt(out, rc)
	if !rc.Succeeded() {
		return fmt.Errorf("%s failed: %s", cmd, rc.Error)
	}
	return nil
}

func (n *node) show(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	vaultStr := fs.String("vault", "", "vault pubkey")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	key, err := parsePubkey("vault", *vaultStr)
	if err != nil {
		return err
	}
	rec, err := n.x.GetVault(key)
	if err != nil {
		return err
	}
	acct, err := n.x.GetAccount(key)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "vault:                %s\n", key)
	fmt.Fprintf(out, "owner:                %s\n", rec.Owner)
	fmt.Fprintf(out, "total_deposits:       %d (%s SOL)\n", rec.TotalDeposits, vm.FormatLamports(rec.TotalDeposits))
	fmt.Fprintf(out, "last_withdrawal_time: %d (%s)\n", rec.LastWithdrawalTime,
		time.Unix(rec.LastWithdrawalTime, 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "lamports:             %d (%s SOL)\n", acct.Lamports, vm.FormatLamports(acct.Lamports))
	return nil
}

func (n *node) balance(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("balance", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	accountStr := fs.String("account", "", "account pubkey")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	key, err := parsePubkey("account", *accountStr)
	if err != nil {
		return err
	}
	acct, err := n.x.GetAccount(key)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d lamports (%s SOL)\n", key, acct.Lamports, vm.FormatLamports(acct.Lamports))
	return nil
}

func (n *node) receipt(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("receipt", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	txID := fs.String("tx", "", "transaction id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *txID == "" {
		return fmt.Errorf("%w: missing -tx", errUsage)
	}
	rc, found, err := n.x.GetReceipt(*txID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("receipt %s not found", *txID)
	}
	printReceipt(out, rc)
	return nil
}

// info 打印执行器配置和已落库的账户、回执数量
func (n *node) info(out io.Writer) error {
	accounts, err := n.x.DB.Scan(keys.AccountPrefix())
	if err != nil {
		return err
	}
	receipts, err := n.x.DB.Scan(keys.ReceiptPrefix())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "program_id:   %s\n", n.x.ProgramID)
	fmt.Fprintf(out, "instructions: %s\n", strings.Join(n.x.Reg.List(), ", "))
	fmt.Fprintf(out, "vault_rent:   %d lamports\n", n.x.Rent.MinimumBalance(vault.RecordLen))
	fmt.Fprintf(out, "accounts:     %d\n", len(accounts))
	fmt.Fprintf(out, "receipts:     %d\n", len(receipts))
	return nil
}

func printReceipt(out io.Writer, rc *vm.Receipt) {
	fmt.Fprintf(out, "tx:     %s\nstatus: %s\n", rc.TxID, rc.Status)
	if code, ok := rc.ErrorCode(); ok {
		fmt.Fprintf(out, "code:   %d (%s)\n", uint32(code), code)
	}
	if rc.Error != "" {
		fmt.Fprintf(out, "error:  %s\n", rc.Error)
	}
	for _, l := range rc.Logs {
		fmt.Fprintf(out, "log:    %s\n", l)
	}
}
