package entity

// PaintSwapNFT is one NFT returned by the PaintSwap marketplace API.
type PaintSwapNFT struct {
	Address  string `json:"address"`
	TokenID  string `json:"tokenId"`
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	OnSale   bool   `json:"onSale"`
	IsERC721 bool   `json:"isERC721"`
	Amount   string `json:"amount,omitempty"`
}

// PaintSwapNFTPage is a single page of /v2/userNFTs.
type PaintSwapNFTPage struct {
	NFTs []PaintSwapNFT `json:"nfts"`
}
