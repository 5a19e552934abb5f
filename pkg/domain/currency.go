package domain

// CurrencyKES is the only currency the platform bills in.
const CurrencyKES = "KES"
