package common

// ShortenAddress keeps the first and last chars characters of an address,
// e.g. "7xKX...AsU6" for chars == 4.
func ShortenAddress(address string, chars int) string {
	if chars <= 0 || len(address) <= 2*chars {
		return address
	}
	return address[:chars] + "..." + address[len(address)-chars:]
}
