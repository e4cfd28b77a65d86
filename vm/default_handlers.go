package vm

// RegisterDefaultHandlers 注册 vault 程序的全部指令处理器
func RegisterDefaultHandlers(reg *HandlerRegistry) error {
	handlers := []InstructionHandler{
		&VaultInitializeHandler{}, // 创建 vault
		&VaultDepositHandler{},    // 存入
		&VaultWithdrawHandler{},   // 取出
	}

	for _, h := range handlers {
		if err := reg.Register(h); err != nil {
			return err
		}
	}
	return nil
}
