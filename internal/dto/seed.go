package dto

// AccountSeed is one node of a chart-of-accounts seed document. Children are
// created beneath it in order.
type AccountSeed struct {
	Code          string        `yaml:"code" binding:"required"`
	Name          string        `yaml:"name" binding:"required"`
	Category      string        `yaml:"category" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	NormalSide    string        `yaml:"normalSide" binding:"omitempty,oneof=DEBIT CREDIT"`
	Description   string        `yaml:"description"`
	IsHeader      bool          `yaml:"header"`
	IsBankAccount bool          `yaml:"bank"`
	Children      []AccountSeed `yaml:"children" binding:"dive"`
}

// ChartSeed is a chart-of-accounts seed document.
type ChartSeed struct {
	Accounts []AccountSeed `yaml:"accounts" binding:"required,min=1,dive"`
}
