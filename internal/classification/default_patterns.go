package classification

// Category names produced by the keyword classifier.
const (
	CategorySalary         = "Salary"
	CategoryTransferIn     = "Transfer In"
	CategoryIncome         = "Income"
	CategoryCashWithdrawal = "Cash Withdrawal"
	CategoryLargeExpense   = "Large Expense"
	CategoryBills          = "Bills"
	CategoryOther          = "Other"
)

// KeywordSet maps one category onto the lowercase substrings that select it.
type KeywordSet struct {
	Category string
	Keywords []string
}

var (
	salaryKeywords   = []string{"salary", "wages", "payroll", "income"}
	transferKeywords = []string{"transfer", "revolut", "paypal", "bank transfer", "deposit"}
	cashKeywords     = []string{"atm", "withdrawal", "cash"}
)

// DefaultKeywords returns the ordered table consulted for non-positive amounts.
// Order matters: the first category with a matching keyword wins.
func DefaultKeywords() []KeywordSet {
	return []KeywordSet{
		{Category: "Groceries", Keywords: []string{
			"tesco", "lidl", "aldi", "supervalu", "dunnes", "centra", "spar", "costcutter", "londis", "mace",
		}},
		{Category: "Restaurants & Dining", Keywords: []string{
			"restaurant", "cafe", "coffee", "pub", "bar", "takeaway", "pizza", "burger", "food", "dining",
			"starbucks", "mcdonald", "kfc", "subway",
		}},
		{Category: "Transport", Keywords: []string{
			"fuel", "petrol", "diesel", "gas station", "circle k", "topaz", "applegreen", "taxi", "uber",
			"bolt", "bus", "luas", "dart", "parking", "toll",
		}},
		{Category: "Shopping", Keywords: []string{
			"amazon", "ebay", "shop", "store", "retail", "next", "zara", "h&m", "primark", "penneys",
			"argos", "harvey norman",
		}},
		{Category: "Entertainment", Keywords: []string{
			"cinema", "theatre", "netflix", "spotify", "disney", "xbox", "playstation", "steam", "game",
			"concert", "ticket",
		}},
		{Category: "Utilities", Keywords: []string{
			"electric ireland", "bord gais", "energia", "vodafone", "three", "eir", "virgin media", "sky",
			"water", "bin", "waste",
		}},
		{Category: "Healthcare", Keywords: []string{
			"pharmacy", "boots", "doctor", "hospital", "clinic", "dentist", "vhi", "laya", "glohealth", "medical",
		}},
		{Category: "Travel", Keywords: []string{
			"ryanair", "aer lingus", "hotel", "booking.com", "airbnb", "hostel", "flight", "airline",
		}},
		{Category: "Transfers", Keywords: transferKeywords},
		{Category: CategoryBills, Keywords: []string{
			"insurance", "tax", "revenue", "motor tax", "subscription", "membership",
		}},
		{Category: "Investments", Keywords: []string{
			"trading 212", "degiro", "etoro", "trade republic", "stock", "crypto", "bitcoin",
		}},
		{Category: "Clothing", Keywords: []string{
			"clothing", "clothes", "fashion", "patagonia", "north face", "nike", "adidas",
		}},
		{Category: "Education", Keywords: []string{
			"school", "college", "university", "course", "udemy", "coursera", "books",
		}},
		{Category: "Home & Garden", Keywords: []string{
			"furniture", "ikea", "homebase", "woodies", "b&q", "hardware", "garden",
		}},
		{Category: "Hello Fresh", Keywords: []string{"hello fresh", "hellofresh"}},
		{Category: "Interests", Keywords: []string{"interest", "interest earned", "interest paid"}},
		{Category: "Cashback", Keywords: []string{"cashback", "cash back", "reward", "refund"}},
	}
}

// Categories lists every category the pipeline can assign by itself, in display order.
func Categories() []string {
	categories := []string{CategorySalary, CategoryTransferIn, CategoryIncome, CategoryCashWithdrawal}
	for _, set := range DefaultKeywords() {
		categories = append(categories, set.Category)
	}
	return append(categories,
		"Savings", "Investment", "Expense",
		CategoryLargeExpense, CategoryOther,
	)
}
