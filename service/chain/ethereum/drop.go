package ethereum

// DropABI is the interface of the EVM drop contract. Reverts carry a
// "(code N)" marker using the same numbering as the candy machine program.
const DropABI = `[
	{"type":"function","name":"mint","stateMutability":"payable","inputs":[],"outputs":[]},
	{"type":"function","name":"itemsAvailable","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"itemsRedeemed","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"goLiveDate","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"price","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`
