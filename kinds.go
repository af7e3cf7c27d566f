package applesauce

import "strconv"

type Kind uint16

func (kind Kind) Num() uint16    { return uint16(kind) }
func (kind Kind) String() string { return "kind::" + kind.Name() + "<" + strconv.Itoa(int(kind)) + ">" }
func (kind Kind) Name() string {
	switch kind {
	case KindProfileMetadata:
		return "ProfileMetadata"
	case KindTextNote:
		return "TextNote"
	case KindRecommendServer:
		return "RecommendServer"
	case KindFollowList:
		return "FollowList"
	case KindEncryptedDirectMessage:
		return "EncryptedDirectMessage"
	case KindDeletion:
		return "Deletion"
	case KindRepost:
		return "Repost"
	case KindReaction:
		return "Reaction"
	case KindGenericRepost:
		return "GenericRepost"
	case KindComment:
		return "Comment"
	case KindFileMetadata:
		return "FileMetadata"
	case KindLiveChatMessage:
		return "LiveChatMessage"
	case KindReporting:
		return "Reporting"
	case KindLabel:
		return "Label"
	case KindZapRequest:
		return "ZapRequest"
	case KindZap:
		return "Zap"
	case KindHighlights:
		return "Highlights"
	case KindMuteList:
		return "MuteList"
	case KindPinList:
		return "PinList"
	case KindRelayListMetadata:
		return "RelayListMetadata"
	case KindBookmarkList:
		return "BookmarkList"
	case KindSearchRelayList:
		return "SearchRelayList"
	case KindInterestList:
		return "InterestList"
	case KindEmojiList:
		return "EmojiList"
	case KindDMRelayList:
		return "DMRelayList"
	case KindUserServerList:
		return "UserServerList"
	case KindClientAuthentication:
		return "ClientAuthentication"
	case KindCategorizedPeopleList:
		return "CategorizedPeopleList"
	case KindRelaySets:
		return "RelaySets"
	case KindBookmarkSets:
		return "BookmarkSets"
	case KindBadgeDefinition:
		return "BadgeDefinition"
	case KindArticle:
		return "Article"
	case KindDraftArticle:
		return "DraftArticle"
	case KindApplicationSpecificData:
		return "ApplicationSpecificData"
	case KindLiveEvent:
		return "LiveEvent"
	case KindUserStatuses:
		return "UserStatuses"
	case KindWikiArticle:
		return "WikiArticle"
	case KindHandlerRecommendation:
		return "HandlerRecommendation"
	case KindHandlerInformation:
		return "HandlerInformation"
	}
	return "unknown"
}

const (
	KindProfileMetadata         Kind = 0
	KindTextNote                Kind = 1
	KindRecommendServer         Kind = 2
	KindFollowList              Kind = 3
	KindEncryptedDirectMessage  Kind = 4
	KindDeletion                Kind = 5
	KindRepost                  Kind = 6
	KindReaction                Kind = 7
	KindGenericRepost           Kind = 16
	KindFileMetadata            Kind = 1063
	KindComment                 Kind = 1111
	KindLiveChatMessage         Kind = 1311
	KindReporting               Kind = 1984
	KindLabel                   Kind = 1985
	KindZapRequest              Kind = 9734
	KindZap                     Kind = 9735
	KindHighlights              Kind = 9802
	KindMuteList                Kind = 10000
	KindPinList                 Kind = 10001
	KindRelayListMetadata       Kind = 10002
	KindBookmarkList            Kind = 10003
	KindSearchRelayList         Kind = 10007
	KindInterestList            Kind = 10015
	KindEmojiList               Kind = 10030
	KindDMRelayList             Kind = 10050
	KindUserServerList          Kind = 10063
	KindClientAuthentication    Kind = 22242
	KindCategorizedPeopleList   Kind = 30000
	KindRelaySets               Kind = 30002
	KindBookmarkSets            Kind = 30003
	KindBadgeDefinition         Kind = 30009
	KindArticle                 Kind = 30023
	KindDraftArticle            Kind = 30024
	KindApplicationSpecificData Kind = 30078
	KindLiveEvent               Kind = 30311
	KindUserStatuses            Kind = 30315
	KindWikiArticle             Kind = 30818
	KindHandlerRecommendation   Kind = 31989
	KindHandlerInformation      Kind = 31990
)

func (kind Kind) IsRegular() bool {
	return kind < 10000 && kind != 0 && kind != 3
}

func (kind Kind) IsReplaceable() bool {
	return kind == 0 || kind == 3 || (10000 <= kind && kind < 20000)
}

func (kind Kind) IsEphemeral() bool {
	return 20000 <= kind && kind < 30000
}

func (kind Kind) IsAddressable() bool {
	return 30000 <= kind && kind < 40000
}
